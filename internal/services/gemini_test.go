package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eburon/artifact-web-ui/internal/models"
)

func TestGeminiStream(t *testing.T) {
	var reqs capturedRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs.capture(t, r)
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q, want test-key", got)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, "", `{"candidates":[{"content":{"role":"model","parts":[{"text":"planning the crab","thought":true}]}}]}`)
		writeSSE(w, "", `{"candidates":[{"content":{"role":"model","parts":[{"text":"<svg>"}]}}]}`)
		writeSSE(w, "", `{"candidates":[]}`)
		writeSSE(w, "", `{"candidates":[{"content":{"role":"model","parts":[{"text":"</svg>"},{"inlineData":{"mimeType":"image/png","data":"aGVsbG8="}}]}}]}`)
	}))
	defer srv.Close()

	temperature := float32(0.4)
	g, err := NewGemini(context.Background(), "test-key", srv.URL, "gemini-test",
		LLMParameters{Temperature: &temperature}, newTestLogger())
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}

	session, err := g.NewSession(context.Background(), "draw svgs")
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	got, err := collectStream(t, session, []models.Part{{Text: "a crab"}, testImagePart})
	if err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	if want := "<svg></svg>data:image/png;base64,aGVsbG8="; got != want {
		t.Errorf("first turn = %q, want %q", got, want)
	}

	if _, err := collectStream(t, session, []models.Part{{Text: "make it red"}}); err != nil {
		t.Fatalf("second turn error = %v", err)
	}

	if len(reqs.bodies) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs.bodies))
	}
	if !strings.HasSuffix(reqs.paths[0], "/models/gemini-test:streamGenerateContent") {
		t.Errorf("path = %q, want the streamGenerateContent method of gemini-test", reqs.paths[0])
	}

	first := reqs.bodies[0]
	sys, ok := first["systemInstruction"].(map[string]any)
	if !ok {
		t.Fatalf("first request has no systemInstruction: %v", first)
	}
	if text := sys["parts"].([]any)[0].(map[string]any)["text"]; text != "draw svgs" {
		t.Errorf("system instruction = %v, want draw svgs", text)
	}
	if cfg, ok := first["generationConfig"].(map[string]any); !ok || cfg["temperature"] == nil {
		t.Errorf("generationConfig = %v, want the temperature", first["generationConfig"])
	}

	contents := first["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("first request has %d contents, want 1", len(contents))
	}
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("first request parts = %v, want text and inline data", parts)
	}
	if parts[0].(map[string]any)["text"] != "a crab" {
		t.Errorf("text part = %v", parts[0])
	}
	inline, ok := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if !ok || inline["mimeType"] != "image/png" || inline["data"] != "aGVsbG8=" {
		t.Errorf("inline part = %v, want the decoded image sent back as base64", parts[1])
	}

	// The chat keeps every streamed chunk of the first reply as its own model content.
	second := reqs.bodies[1]["contents"].([]any)
	if len(second) != 5 {
		t.Fatalf("second request has %d contents, want 5", len(second))
	}
	last := second[4].(map[string]any)
	if last["role"] != "user" || last["parts"].([]any)[0].(map[string]any)["text"] != "make it red" {
		t.Errorf("last content = %v, want the follow-up user message", last)
	}
}

func TestGeminiStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "bad-key", srv.URL, "gemini-test", LLMParameters{}, newTestLogger())
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	session, err := g.NewSession(context.Background(), "")
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if _, err := collectStream(t, session, []models.Part{{Text: "hi"}}); err == nil {
		t.Error("stream error = nil, want the API error")
	}
}

func TestGeminiPartsInvalidImage(t *testing.T) {
	_, err := geminiParts([]models.Part{{InlineData: &models.Blob{MIMEType: "image/png", Data: "%%%"}}})
	if err == nil {
		t.Error("geminiParts() error = nil, want a decoding error")
	}
}
