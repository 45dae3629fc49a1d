package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	artifactwebui "github.com/eburon/artifact-web-ui"
	"github.com/eburon/artifact-web-ui/internal/conversation"
	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/tmaxmax/go-sse"
)

// Archive defines the interface for keeping exported artifacts. It provides methods for saving an
// artifact and reading the saved ones back.
type Archive interface {
	SaveArtifact(ctx context.Context, artifact models.Artifact) (string, error)
	Artifacts(ctx context.Context) ([]models.Artifact, error)
	Artifact(ctx context.Context, id string) (models.Artifact, error)
}

// Main handles the web interface: it renders the conversation held by the Store, admits new turns
// through the Coordinator and pushes every store change to the browsers over server-sent events.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	store       *conversation.Store
	coordinator *conversation.Coordinator
	archive     Archive

	unsubscribe func()

	logger *slog.Logger
}

const (
	feedSSETopic = "feed"

	errLoggerKey = "err"
)

var feedSSEType = sse.Type("feed")

// NewMain creates a new Main instance. It parses the HTML templates from the embedded filesystem,
// configures the SSE server and subscribes to the store so every mutation is published as a rendered
// feed to the connected clients.
func NewMain(
	store *conversation.Store,
	coordinator *conversation.Coordinator,
	archive Archive,
	logger *slog.Logger,
) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(
		artifactwebui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, fmt.Errorf("failed to parse templates: %w", err)
	}

	m := Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{sse.DefaultTopic, feedSSETopic},
				}, true
			},
		},
		templates:   tmpl,
		store:       store,
		coordinator: coordinator,
		archive:     archive,
		logger:      logger.With(slog.String("module", "handlers")),
	}
	m.unsubscribe = store.Subscribe(m.publishFeed)

	return m, nil
}

// HandleSSE serves the server-sent events stream the browsers subscribe to for feed updates.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

func (m Main) publishFeed(snap conversation.Snapshot) {
	html, err := m.renderFeed(snap)
	if err != nil {
		m.logger.Error("Failed to render feed", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{
		Type: feedSSEType,
	}
	msg.AppendData(html)
	if err := m.sseSrv.Publish(&msg, feedSSETopic); err != nil {
		m.logger.Error("Failed to publish feed", slog.String(errLoggerKey, err.Error()))
	}
}

// Shutdown gracefully terminates the Main instance's SSE server. It stops listening to the store,
// broadcasts a close message to all connected clients and waits up to 5 seconds for connections to
// terminate. After the timeout, any remaining connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	m.unsubscribe()

	e := &sse.Message{Type: sse.Type("closeFeed")}
	// Events without data are dropped by browsers.
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}
