package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/eburon/artifact-web-ui/internal/modes"
)

type homePageData struct {
	Modes       []modes.Mode
	CurrentMode modes.Mode
	Generating  bool
	Feed        template.HTML
}

// HandleHome renders the main page: the mode picker, the presets of the current mode and the feed of the
// current conversation.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := m.store.Snapshot()
	feed, err := m.renderFeed(snap)
	if err != nil {
		m.logger.Error("Failed to render feed", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := homePageData{
		Modes:       modes.All(),
		CurrentMode: m.coordinator.Mode(),
		Generating:  snap.Generating,
		Feed:        template.HTML(feed),
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to execute home template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
