package conversation

import (
	"github.com/eburon/artifact-web-ui/internal/models"
)

// BuildParts builds the outbound message: a text part when the prompt is not empty, followed by an
// inline-data part when an image is attached.
func BuildParts(prompt, image string) ([]models.Part, error) {
	parts := make([]models.Part, 0, 2)
	if prompt != "" {
		parts = append(parts, models.Part{Text: prompt})
	}
	if image != "" {
		blob, err := models.ParseDataURL(image)
		if err != nil {
			return nil, err
		}
		parts = append(parts, models.Part{InlineData: &blob})
	}
	return parts, nil
}
