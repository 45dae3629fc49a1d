package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eburon/artifact-web-ui/internal/artifact"
	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/eburon/artifact-web-ui/internal/modes"
)

type artifactsPageData struct {
	Artifacts []artifactItem
}

type artifactItem struct {
	models.Artifact
	ModeName string
}

// previewCSP keeps generated documents in an opaque origin even when opened outside the iframe.
const previewCSP = "sandbox allow-scripts allow-popups"

// HandlePreview serves the preview document of the model message given by the "id" query parameter.
// The feed embeds it in a sandboxed iframe.
func (m Main) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, am, ok := findTurn(m.store.Snapshot(), r.URL.Query().Get("id"))
	if !ok {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}

	writeDocument(w, artifact.Document(m.coordinator.Mode(), am.Content))
}

// HandleExport downloads the model message given by the "id" query parameter as a ZIP archive and keeps
// a copy of it in the archive. A turn that is still generating, or that failed, cannot be exported.
func (m Main) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := m.store.Snapshot()
	id := r.URL.Query().Get("id")
	prompt, am, ok := findTurn(snap, id)
	if !ok {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}
	if snap.Generating && snap.Messages[len(snap.Messages)-1].ID == id {
		http.Error(w, "A response is still being generated", http.StatusConflict)
		return
	}
	if am.Content == "" || isFailure(am.Content) {
		http.Error(w, "Nothing to export", http.StatusUnprocessableEntity)
		return
	}

	mode := m.coordinator.Mode()
	a := models.Artifact{
		Title:     mode.Title(prompt),
		Mode:      mode.Key,
		Prompt:    prompt,
		Content:   am.Content,
		CreatedAt: time.Now(),
	}
	newID, err := m.archive.SaveArtifact(r.Context(), a)
	if err != nil {
		m.logger.Error("Failed to save artifact",
			slog.String("messageID", id),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.ID = newID

	m.writeZip(w, a)
}

// HandleArtifacts renders the list of archived artifacts.
func (m Main) HandleArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	artifacts, err := m.archive.Artifacts(r.Context())
	if err != nil {
		m.logger.Error("Failed to get artifacts", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]artifactItem, len(artifacts))
	for i, a := range artifacts {
		items[i] = artifactItem{Artifact: a, ModeName: modes.Get(a.Mode).Name}
	}

	if err := m.templates.ExecuteTemplate(w, "artifacts.html", artifactsPageData{Artifacts: items}); err != nil {
		m.logger.Error("Failed to execute artifacts template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleArtifactView serves the preview document of an archived artifact.
func (m Main) HandleArtifactView(w http.ResponseWriter, r *http.Request) {
	a, ok := m.archivedArtifact(w, r)
	if !ok {
		return
	}
	writeDocument(w, artifact.Document(modes.Get(a.Mode), a.Content))
}

// HandleArtifactDownload downloads an archived artifact as a ZIP archive.
func (m Main) HandleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	a, ok := m.archivedArtifact(w, r)
	if !ok {
		return
	}
	m.writeZip(w, a)
}

func (m Main) archivedArtifact(w http.ResponseWriter, r *http.Request) (models.Artifact, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return models.Artifact{}, false
	}

	a, err := m.archive.Artifact(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		if errors.Is(err, models.ErrArtifactNotFound) {
			http.Error(w, "Artifact not found", http.StatusNotFound)
			return models.Artifact{}, false
		}
		m.logger.Error("Failed to get artifact", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return models.Artifact{}, false
	}
	return a, true
}

func (m Main) writeZip(w http.ResponseWriter, a models.Artifact) {
	data, err := artifact.Zip(a)
	if err != nil {
		m.logger.Error("Failed to build zip",
			slog.String("artifactID", a.ID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Slug(a.Title)+".zip"))
	_, _ = w.Write(data)
}

func writeDocument(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", previewCSP)
	_, _ = io.WriteString(w, doc)
}
