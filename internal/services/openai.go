package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/eburon/artifact-web-ui/internal/conversation"
	"github.com/eburon/artifact-web-ui/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI provides an implementation of the LLM interface for interacting with OpenAI's language models.
type OpenAI struct {
	model  string
	params LLMParameters

	client *goopenai.Client

	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI instance with the specified API key and model name. An empty baseURL
// keeps the official endpoint; any OpenAI compatible server can be used otherwise.
func NewOpenAI(apiKey, baseURL, model string, params LLMParameters, logger *slog.Logger) OpenAI {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return OpenAI{
		model:  model,
		params: params,
		client: goopenai.NewClientWithConfig(cfg),
		logger: logger.With(slog.String("module", "openai")),
	}
}

// NewSession implements the LLM interface.
func (o OpenAI) NewSession(_ context.Context, systemInstruction string) (conversation.Session, error) {
	return newHistorySession(systemInstruction, o.stream), nil
}

func openAIUserMessage(parts []models.Part) goopenai.ChatCompletionMessage {
	hasImage := false
	for _, p := range parts {
		hasImage = hasImage || p.IsImage()
	}
	if !hasImage {
		return goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleUser,
			Content: partsText(parts),
		}
	}

	multi := make([]goopenai.ChatMessagePart, 0, len(parts))
	for _, p := range parts {
		if p.IsImage() {
			multi = append(multi, goopenai.ChatMessagePart{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    p.InlineData.DataURL(),
					Detail: goopenai.ImageURLDetailAuto,
				},
			})
			continue
		}
		multi = append(multi, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeText,
			Text: p.Text,
		})
	}
	return goopenai.ChatCompletionMessage{
		Role:         goopenai.ChatMessageRoleUser,
		MultiContent: multi,
	}
}

func openAIMessages(system string, history []exchange, parts []models.Part) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, 2*len(history)+2)
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, ex := range history {
		msgs = append(msgs, openAIUserMessage(ex.parts), goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleAssistant,
			Content: ex.reply,
		})
	}
	return append(msgs, openAIUserMessage(parts))
}

func (o OpenAI) stream(
	ctx context.Context,
	system string,
	history []exchange,
	parts []models.Part,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := o.chatRequest(openAIMessages(system, history, parts))

		if o.logger.Enabled(ctx, slog.LevelDebug) {
			if reqJSON, err := json.Marshal(redactedRequest(req)); err == nil {
				o.logger.Debug("Request", slog.String("req", string(reqJSON)))
			}
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			if content := response.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}
	}
}

// redactedRequest returns a copy of req fit for logging: inline image payloads are replaced by their
// size.
func redactedRequest(req goopenai.ChatCompletionRequest) goopenai.ChatCompletionRequest {
	msgs := make([]goopenai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		if m.MultiContent != nil {
			multi := make([]goopenai.ChatMessagePart, len(m.MultiContent))
			for j, p := range m.MultiContent {
				if p.ImageURL != nil {
					img := *p.ImageURL
					img.URL = shortenDataURL(img.URL)
					p.ImageURL = &img
				}
				multi[j] = p
			}
			m.MultiContent = multi
		}
		msgs[i] = m
	}
	req.Messages = msgs
	return req
}

func shortenDataURL(url string) string {
	header, payload, ok := strings.Cut(url, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return url
	}
	return fmt.Sprintf("%s,<%d bytes>", header, len(payload))
}

func (o OpenAI) chatRequest(messages []goopenai.ChatCompletionMessage) goopenai.ChatCompletionRequest {
	req := goopenai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   true,
	}

	if o.params.Temperature != nil {
		req.Temperature = *o.params.Temperature
	}
	if o.params.TopP != nil {
		req.TopP = *o.params.TopP
	}
	if o.params.Stop != nil {
		req.Stop = o.params.Stop
	}
	if o.params.PresencePenalty != nil {
		req.PresencePenalty = *o.params.PresencePenalty
	}
	if o.params.Seed != nil {
		req.Seed = o.params.Seed
	}
	if o.params.FrequencyPenalty != nil {
		req.FrequencyPenalty = *o.params.FrequencyPenalty
	}

	return req
}
