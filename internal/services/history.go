package services

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/eburon/artifact-web-ui/internal/conversation"
	"github.com/eburon/artifact-web-ui/internal/models"
)

// LLMParameters holds the optional sampling parameters shared by the providers. A nil field keeps the
// provider default.
type LLMParameters struct {
	Temperature      *float32 `yaml:"temperature"`
	TopP             *float32 `yaml:"topP"`
	Stop             []string `yaml:"stop"`
	PresencePenalty  *float32 `yaml:"presencePenalty"`
	FrequencyPenalty *float32 `yaml:"frequencyPenalty"`
	Seed             *int     `yaml:"seed"`
}

// exchange is one completed turn of a history session.
type exchange struct {
	parts []models.Part
	reply string
}

// streamFunc streams the reply to parts given the system instruction and the previous exchanges.
type streamFunc func(ctx context.Context, system string, history []exchange, parts []models.Part) iter.Seq2[string, error]

// historySession gives stateless chat APIs the behaviour of a server-side chat: every completed turn is
// recorded and replayed on the next request. Failed, cancelled or abandoned turns are not recorded.
type historySession struct {
	system string
	stream streamFunc

	mu        sync.Mutex
	exchanges []exchange
}

func newHistorySession(system string, stream streamFunc) *historySession {
	return &historySession{
		system: system,
		stream: stream,
	}
}

// SendMessageStream implements conversation.Session.
func (h *historySession) SendMessageStream(ctx context.Context, parts []models.Part) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		h.mu.Lock()
		history := slices.Clone(h.exchanges)
		h.mu.Unlock()

		var sb strings.Builder
		for chunk, err := range h.stream(ctx, h.system, history, parts) {
			if err != nil {
				yield("", err)
				return
			}
			sb.WriteString(chunk)
			if !yield(chunk, nil) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			yield("", fmt.Errorf("stream interrupted: %w", err))
			return
		}

		h.mu.Lock()
		h.exchanges = append(h.exchanges, exchange{parts: parts, reply: sb.String()})
		h.mu.Unlock()
	}
}

func partsText(parts []models.Part) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

var _ conversation.Session = (*historySession)(nil)

const errLoggerKey = "err"
