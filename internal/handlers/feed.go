package handlers

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/eburon/artifact-web-ui/internal/artifact"
	"github.com/eburon/artifact-web-ui/internal/conversation"
	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/eburon/artifact-web-ui/internal/modes"
)

// turn pairs a user message with the model message that answers it.
type turn struct {
	Prompt string
	Image  template.URL

	MessageID string
	Response  string
	Code      template.HTML

	ImageOutput bool
	Generating  bool
	Failed      bool
}

type feedData struct {
	Turns      []turn
	Generating bool
	Mode       modes.Mode
}

var templateFuncs = template.FuncMap{
	"imageURL": imageURL,
}

// imageURL marks a data URL as safe for src attributes. html/template rejects data URLs otherwise, so
// only image data URLs are let through.
func imageURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") {
		return ""
	}
	return template.URL(s)
}

func isFailure(content string) bool {
	return content == conversation.FailureFirstTurn || content == conversation.FailureContinuation
}

// feedTurns groups the log into turns. A user message only forms a turn once its model message
// follows it.
func (m Main) feedTurns(snap conversation.Snapshot, mode modes.Mode) ([]turn, error) {
	var turns []turn
	msgs := snap.Messages
	for i := 0; i+1 < len(msgs); i++ {
		if msgs[i].Role != models.RoleUser || msgs[i+1].Role != models.RoleModel {
			continue
		}
		um, am := msgs[i], msgs[i+1]

		t := turn{
			Prompt:      um.Content,
			Image:       imageURL(um.Image),
			MessageID:   am.ID,
			Response:    am.Content,
			ImageOutput: mode.ImageOutput,
			Generating:  snap.Generating && i == len(msgs)-2,
			Failed:      isFailure(am.Content),
		}
		if !t.Failed && !t.ImageOutput && am.Content != "" {
			code, err := artifact.Highlight(mode.Syntax, am.Content)
			if err != nil {
				return nil, fmt.Errorf("failed to highlight message %s: %w", am.ID, err)
			}
			t.Code = template.HTML(code)
		}
		turns = append(turns, t)
		i++
	}
	return turns, nil
}

func (m Main) renderFeed(snap conversation.Snapshot) (string, error) {
	mode := m.coordinator.Mode()
	turns, err := m.feedTurns(snap, mode)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	err = m.templates.ExecuteTemplate(&sb, "feed", feedData{
		Turns:      turns,
		Generating: snap.Generating,
		Mode:       mode,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute feed template: %w", err)
	}
	return sb.String(), nil
}

// findTurn looks up the model message with the given id together with the prompt it answered.
func findTurn(snap conversation.Snapshot, messageID string) (prompt string, am models.Message, ok bool) {
	for i, msg := range snap.Messages {
		if msg.ID != messageID || msg.Role != models.RoleModel {
			continue
		}
		if i > 0 && snap.Messages[i-1].Role == models.RoleUser {
			prompt = snap.Messages[i-1].Content
		}
		return prompt, msg, true
	}
	return "", models.Message{}, false
}
