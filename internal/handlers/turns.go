package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/eburon/artifact-web-ui/internal/modes"
)

// maxImageSize bounds the attached image upload.
const maxImageSize = 10 << 20

var errNotImage = errors.New("attachment is not an image")

// HandleTurns starts a new turn from a POST request. It accepts the prompt through the "message" form
// field and an optional image through either an "image" file upload or an "image_data" data URL. At
// least one of the two is required.
//
// The turn is admitted synchronously, so the response already contains the user message and the empty
// model placeholder, and the answer streams in the background. Progress reaches the browser through the
// feed events of the SSE stream. While another turn is generating the request is rejected with
// 409 Conflict and nothing changes.
func (m Main) HandleTurns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		m.logger.Error("Failed to parse form", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	msg := strings.TrimSpace(r.FormValue("message"))
	image, err := formImage(r)
	if err != nil {
		m.logger.Error("Invalid image", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if msg == "" && image == "" {
		http.Error(w, "Message or image is required", http.StatusBadRequest)
		return
	}

	turn, ok := m.coordinator.Admit(r.Context(), msg, image)
	if !ok {
		http.Error(w, "A response is still being generated", http.StatusConflict)
		return
	}

	go func() {
		// The stream outlives the request; there is no cancellation once a turn started.
		res := turn.Stream(context.Background())
		if res.Err != nil {
			m.logger.Error("Turn failed",
				slog.String("messageID", turn.MessageID()),
				slog.String(errLoggerKey, res.Err.Error()))
			return
		}
		m.logger.Debug("Turn settled",
			slog.String("messageID", turn.MessageID()),
			slog.String("outcome", res.Outcome.String()))
	}()

	feed, err := m.renderFeed(m.store.Snapshot())
	if err != nil {
		m.logger.Error("Failed to render feed", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, feed)
}

// HandleReset starts a fresh conversation. An optional "mode" form field switches the generation mode
// for the sessions created from now on. A reset is refused while a turn is generating, since the
// running stream would otherwise write into the new conversation.
func (m Main) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mode := m.coordinator.Mode()
	if key := r.FormValue("mode"); key != "" {
		var ok bool
		if mode, ok = modes.Lookup(key); !ok {
			http.Error(w, fmt.Sprintf("Unknown mode %q", key), http.StatusBadRequest)
			return
		}
	}

	if !m.coordinator.Reset(mode) {
		http.Error(w, "A response is still being generated", http.StatusConflict)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formImage returns the attached image as a data URL, or an empty string when there is none.
func formImage(r *http.Request) (string, error) {
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return "", fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
			if err != nil {
				return "", fmt.Errorf("failed to read image: %w", err)
			}
			if len(data) > maxImageSize {
				return "", fmt.Errorf("image exceeds %d bytes", maxImageSize)
			}
			if len(data) == 0 {
				return "", nil
			}

			mimeType := http.DetectContentType(data)
			if !strings.HasPrefix(mimeType, "image/") {
				return "", fmt.Errorf("%w: %s", errNotImage, mimeType)
			}
			return models.Blob{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			}.DataURL(), nil
		}
	}

	dataURL := strings.TrimSpace(r.FormValue("image_data"))
	if dataURL == "" {
		return "", nil
	}
	blob, err := models.ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(blob.MIMEType, "image/") {
		return "", fmt.Errorf("%w: %s", errNotImage, blob.MIMEType)
	}
	return dataURL, nil
}
