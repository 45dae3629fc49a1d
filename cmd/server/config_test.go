package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/eburon/artifact-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

func TestConfigUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, cfg config)
	}{
		{
			name: "Gemini with defaults",
			yaml: `
llm:
  provider: gemini
`,
			check: func(t *testing.T, cfg config) {
				if cfg.Port != defaultPort {
					t.Errorf("Port = %q, want %q", cfg.Port, defaultPort)
				}
				if _, ok := cfg.LLM.(*geminiConfig); !ok {
					t.Errorf("LLM = %T, want *geminiConfig", cfg.LLM)
				}
			},
		},
		{
			name: "Gemini with endpoint",
			yaml: `
llm:
  provider: gemini
  model: gemini-test
  baseURL: http://localhost:8080/
`,
			check: func(t *testing.T, cfg config) {
				g, ok := cfg.LLM.(*geminiConfig)
				if !ok {
					t.Fatalf("LLM = %T, want *geminiConfig", cfg.LLM)
				}
				if g.BaseURL != "http://localhost:8080/" || g.Model != "gemini-test" {
					t.Errorf("gemini config = %+v", g)
				}
			},
		},
		{
			name: "Anthropic with parameters",
			yaml: `
port: "9090"
mode: svg
logLevel: debug
llm:
  provider: anthropic
  model: claude-test
  maxTokens: 4096
  parameters:
    temperature: 0.7
    stop: ["</svg>"]
`,
			check: func(t *testing.T, cfg config) {
				if cfg.Port != "9090" || cfg.Mode != "svg" || cfg.LogLevel != "debug" {
					t.Errorf("config = %+v", cfg)
				}
				a, ok := cfg.LLM.(*anthropicConfig)
				if !ok {
					t.Fatalf("LLM = %T, want *anthropicConfig", cfg.LLM)
				}
				if a.Model != "claude-test" || a.MaxTokens != 4096 {
					t.Errorf("anthropic config = %+v", a)
				}
				if a.Parameters.Temperature == nil || *a.Parameters.Temperature != 0.7 {
					t.Errorf("temperature = %v, want 0.7", a.Parameters.Temperature)
				}
				if len(a.Parameters.Stop) != 1 || a.Parameters.Stop[0] != "</svg>" {
					t.Errorf("stop = %v", a.Parameters.Stop)
				}
			},
		},
		{
			name: "Ollama",
			yaml: `
llm:
  provider: ollama
  model: llama3
  host: http://gpu-box:11434
`,
			check: func(t *testing.T, cfg config) {
				o, ok := cfg.LLM.(*ollamaConfig)
				if !ok || o.Host != "http://gpu-box:11434" || o.Model != "llama3" {
					t.Errorf("LLM = %+v", cfg.LLM)
				}
			},
		},
		{
			name:    "Missing provider",
			yaml:    "port: \"8080\"\n",
			wantErr: "llm provider is required",
		},
		{
			name: "Unknown provider",
			yaml: `
llm:
  provider: mainframe
`,
			wantErr: "unknown llm provider: mainframe",
		},
		{
			name: "Unknown mode",
			yaml: `
mode: cobol
llm:
  provider: gemini
`,
			wantErr: "unknown mode: cobol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config
			err := yaml.Unmarshal([]byte(tt.yaml), &cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Unmarshal() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestConfigLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config
		wantErr bool
	}{
		{name: "Defaults", cfg: config{}},
		{name: "JSON debug", cfg: config{LogLevel: "debug", LogFormat: "json"}},
		{name: "Bad level", cfg: config{LogLevel: "loud"}, wantErr: true},
		{name: "Bad format", cfg: config{LogFormat: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := tt.cfg.logger()
			if (err != nil) != tt.wantErr {
				t.Fatalf("logger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("logger() returned nil")
			}
		})
	}
}

func TestLLMConfigs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")

	tests := []struct {
		name    string
		cfg     llmConfig
		wantErr string
		wantLLM any
	}{
		{
			name:    "Gemini without key",
			cfg:     geminiConfig{},
			wantErr: "api key is required",
		},
		{
			name:    "Ollama without model",
			cfg:     ollamaConfig{},
			wantErr: "model is required",
		},
		{
			name:    "Ollama default host",
			cfg:     ollamaConfig{BaseLLMConfig: BaseLLMConfig{Model: "llama3"}},
			wantLLM: services.Ollama{},
		},
		{
			name:    "Anthropic without max tokens",
			cfg:     anthropicConfig{BaseLLMConfig: BaseLLMConfig{Model: "claude-test"}},
			wantErr: "max_tokens is required",
		},
		{
			name:    "Anthropic",
			cfg:     anthropicConfig{BaseLLMConfig: BaseLLMConfig{Model: "claude-test"}, MaxTokens: 1024},
			wantLLM: services.Anthropic{},
		},
		{
			name:    "OpenAI",
			cfg:     openAIConfig{BaseLLMConfig: BaseLLMConfig{Model: "gpt-test"}},
			wantLLM: services.OpenAI{},
		},
		{
			name:    "OpenRouter without model",
			cfg:     openRouterConfig{},
			wantErr: "model is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := tt.cfg.llm(context.Background(), logger)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("llm() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("llm() error = %v", err)
			}

			var ok bool
			switch tt.wantLLM.(type) {
			case services.Ollama:
				_, ok = llm.(services.Ollama)
			case services.Anthropic:
				_, ok = llm.(services.Anthropic)
			case services.OpenAI:
				_, ok = llm.(services.OpenAI)
			}
			if !ok {
				t.Errorf("llm() = %T, want %T", llm, tt.wantLLM)
			}
		})
	}
}
