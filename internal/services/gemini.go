package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"log/slog"

	"github.com/eburon/artifact-web-ui/internal/conversation"
	"github.com/eburon/artifact-web-ui/internal/models"
	"google.golang.org/genai"
)

// Gemini provides an implementation of the LLM interface backed by the Gemini API chat sessions. Unlike
// the other providers the conversation history is kept by the SDK chat.
type Gemini struct {
	model  string
	params LLMParameters

	client *genai.Client

	logger *slog.Logger
}

type geminiSession struct {
	chat   *genai.Chat
	logger *slog.Logger
}

// NewGemini creates a new Gemini instance for the given API key and model name. An empty baseURL keeps
// the SDK's default endpoint.
func NewGemini(
	ctx context.Context,
	apiKey, baseURL, model string,
	params LLMParameters,
	logger *slog.Logger,
) (Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return Gemini{}, fmt.Errorf("error creating gemini client: %w", err)
	}

	return Gemini{
		model:  model,
		params: params,
		client: client,
		logger: logger.With(slog.String("module", "gemini")),
	}, nil
}

// NewSession creates a chat whose system instruction is fixed for all of its turns.
func (g Gemini) NewSession(ctx context.Context, systemInstruction string) (conversation.Session, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature:   g.params.Temperature,
		TopP:          g.params.TopP,
		StopSequences: g.params.Stop,
	}

	chat, err := g.client.Chats.Create(ctx, g.model, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating chat: %w", err)
	}

	return geminiSession{chat: chat, logger: g.logger}, nil
}

func geminiParts(parts []models.Part) ([]genai.Part, error) {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if !p.IsImage() {
			out = append(out, genai.Part{Text: p.Text})
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("error decoding inline data: %w", err)
		}
		out = append(out, genai.Part{
			InlineData: &genai.Blob{
				MIMEType: p.InlineData.MIMEType,
				Data:     data,
			},
		})
	}
	return out, nil
}

// SendMessageStream streams the reply of the chat. Text parts are yielded as they are, inline image
// parts in the reply are yielded as data URLs so image modes can render them.
func (s geminiSession) SendMessageStream(ctx context.Context, parts []models.Part) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		gParts, err := geminiParts(parts)
		if err != nil {
			yield("", err)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for res, err := range s.chat.SendMessageStream(ctx, gParts...) {
			if err != nil {
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
				s.logger.Debug("Skipping response without content")
				continue
			}

			for _, part := range res.Candidates[0].Content.Parts {
				var chunk string
				switch {
				case part.Thought:
					s.logger.Debug("Skipping thought part")
					continue
				case part.InlineData != nil:
					chunk = models.Blob{
						MIMEType: part.InlineData.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
					}.DataURL()
				default:
					chunk = part.Text
				}
				if chunk == "" {
					continue
				}
				if !yield(chunk, nil) {
					return
				}
			}
		}
	}
}
