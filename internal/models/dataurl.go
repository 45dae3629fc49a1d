package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDataURL is returned when a string is not a "data:<mime>;base64,<payload>" data URL.
var ErrMalformedDataURL = errors.New("malformed data url")

// ParseDataURL splits a data URL at its first comma. The MIME type is the segment between ':' and ';'
// of the header and the payload is everything after the comma, left base64 encoded.
func ParseDataURL(dataURL string) (Blob, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return Blob{}, fmt.Errorf("%w: missing payload separator", ErrMalformedDataURL)
	}

	_, afterColon, ok := strings.Cut(header, ":")
	if !ok {
		return Blob{}, fmt.Errorf("%w: missing scheme", ErrMalformedDataURL)
	}
	mimeType, _, _ := strings.Cut(afterColon, ";")
	if mimeType == "" {
		return Blob{}, fmt.Errorf("%w: missing mime type", ErrMalformedDataURL)
	}

	return Blob{
		MIMEType: mimeType,
		Data:     payload,
	}, nil
}
