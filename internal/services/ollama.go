package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/eburon/artifact-web-ui/internal/conversation"
	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/ollama/ollama/api"
)

// Ollama provides an implementation of the LLM interface for interacting with Ollama's language models.
// It manages connections to an Ollama server instance and handles streaming chat completions.
type Ollama struct {
	host   string
	model  string
	params LLMParameters

	client *api.Client

	logger *slog.Logger
}

// NewOllama creates a new Ollama instance with the specified host URL and model name. The host
// parameter should be a valid URL pointing to an Ollama server.
func NewOllama(host, model string, params LLMParameters, logger *slog.Logger) (Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return Ollama{}, fmt.Errorf("error parsing host: %w", err)
	}

	return Ollama{
		host:   host,
		model:  model,
		params: params,
		client: api.NewClient(u, &http.Client{}),
		logger: logger.With(slog.String("module", "ollama")),
	}, nil
}

// NewSession implements the LLM interface. Ollama chats are stateless, so the session replays its own
// history on every request.
func (o Ollama) NewSession(_ context.Context, systemInstruction string) (conversation.Session, error) {
	return newHistorySession(systemInstruction, o.stream), nil
}

func ollamaMessage(role string, parts []models.Part) (api.Message, error) {
	msg := api.Message{
		Role:    role,
		Content: partsText(parts),
	}
	for _, p := range parts {
		if !p.IsImage() {
			continue
		}
		img, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return api.Message{}, fmt.Errorf("error decoding image: %w", err)
		}
		msg.Images = append(msg.Images, api.ImageData(img))
	}
	return msg, nil
}

func (o Ollama) options() map[string]any {
	opts := map[string]any{}
	if o.params.Temperature != nil {
		opts["temperature"] = *o.params.Temperature
	}
	if o.params.TopP != nil {
		opts["top_p"] = *o.params.TopP
	}
	if o.params.Stop != nil {
		opts["stop"] = o.params.Stop
	}
	if o.params.PresencePenalty != nil {
		opts["presence_penalty"] = *o.params.PresencePenalty
	}
	if o.params.FrequencyPenalty != nil {
		opts["frequency_penalty"] = *o.params.FrequencyPenalty
	}
	if o.params.Seed != nil {
		opts["seed"] = *o.params.Seed
	}
	return opts
}

func (o Ollama) stream(
	ctx context.Context,
	system string,
	history []exchange,
	parts []models.Part,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		msgs := make([]api.Message, 0, 2*len(history)+2)
		msgs = append(msgs, api.Message{
			Role:    "system",
			Content: system,
		})
		for _, ex := range history {
			um, err := ollamaMessage("user", ex.parts)
			if err != nil {
				yield("", err)
				return
			}
			msgs = append(msgs, um, api.Message{Role: "assistant", Content: ex.reply})
		}
		um, err := ollamaMessage("user", parts)
		if err != nil {
			yield("", err)
			return
		}
		msgs = append(msgs, um)

		t := true
		req := api.ChatRequest{
			Model:    o.model,
			Messages: msgs,
			Stream:   &t,
			Options:  o.options(),
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
			if stopped {
				return nil
			}
			if !yield(res.Message.Content, nil) {
				stopped = true
				cancel()
			}
			return nil
		}); err != nil {
			if stopped {
				return
			}
			o.logger.Debug("Chat request failed", slog.String(errLoggerKey, err.Error()))
			yield("", fmt.Errorf("error sending request: %w", err))
		}
	}
}
