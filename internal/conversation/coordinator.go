package conversation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/eburon/artifact-web-ui/internal/modes"
)

// LLM opens chat sessions against a generative model. The system instruction is fixed for the lifetime
// of the session.
type LLM interface {
	NewSession(ctx context.Context, systemInstruction string) (Session, error)
}

// Session is an ongoing multi-turn conversation with the model. SendMessageStream returns a finite,
// non-restartable iterator that yields the response text fragments in arrival order. A non-nil error
// ends the stream.
type Session interface {
	SendMessageStream(ctx context.Context, parts []models.Part) iter.Seq2[string, error]
}

// Outcome is the result kind of a turn.
type Outcome int

const (
	// OutcomeRejected means the admission guard refused the turn and nothing was mutated.
	OutcomeRejected Outcome = iota
	// OutcomeSuccess means the stream was consumed to the end.
	OutcomeSuccess
	// OutcomeGenerationFailure means session creation or stream consumption failed.
	OutcomeGenerationFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeSuccess:
		return "success"
	case OutcomeGenerationFailure:
		return "generation_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes how a turn settled. Content is the final content of the model message.
type Result struct {
	Outcome Outcome
	Content string
	Err     error
}

const (
	// FailureFirstTurn replaces the model message when the first turn of a session fails.
	FailureFirstTurn = "Sorry, something went wrong while generating the UI."
	// FailureContinuation replaces the model message when a follow-up turn fails.
	FailureContinuation = "Sorry, something went wrong while updating the UI."
)

// ErrGenerationFailure wraps every error that made a turn fail.
var ErrGenerationFailure = errors.New("generation failure")

// Coordinator drives one request/response cycle at a time against the LLM and folds the streamed
// output into the Store.
type Coordinator struct {
	store *Store
	llm   LLM

	// mu serializes admission so the guard and the flag set happen as one step.
	mu sync.Mutex

	modeMu sync.Mutex
	mode   modes.Mode

	logger *slog.Logger
}

// Turn is an admitted cycle. Stream must be called exactly once to fold the response and release the
// generation flag.
type Turn struct {
	c *Coordinator

	prompt  string
	image   string
	session Session
	err     error

	failureText string
	messageID   string
}

// NewCoordinator creates a Coordinator writing to store. Sessions are created with the system
// instruction of mode.
func NewCoordinator(store *Store, llm LLM, mode modes.Mode, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		llm:    llm,
		mode:   mode,
		logger: logger.With(slog.String("module", "coordinator")),
	}
}

// SetMode selects the mode whose system instruction is used the next time a session is created. An
// already active session keeps its instruction until the store is reset.
func (c *Coordinator) SetMode(mode modes.Mode) {
	c.modeMu.Lock()
	defer c.modeMu.Unlock()
	c.mode = mode
}

// Mode returns the selected mode.
func (c *Coordinator) Mode() modes.Mode {
	c.modeMu.Lock()
	defer c.modeMu.Unlock()
	return c.mode
}

// Reset starts a fresh conversation in mode: the store is cleared, which drops the chat session. It
// refuses, returning false, while a turn is generating.
func (c *Coordinator) Reset(mode modes.Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.IsGenerating() {
		return false
	}
	c.SetMode(mode)
	c.store.Reset()
	return true
}

// BeginTurn admits and streams a turn, returning once it has settled. Failures never escape as errors
// to the caller; they are reported through the Result and the model message content.
func (c *Coordinator) BeginTurn(ctx context.Context, prompt, image string) Result {
	turn, ok := c.Admit(ctx, prompt, image)
	if !ok {
		return Result{Outcome: OutcomeRejected}
	}
	return turn.Stream(ctx)
}

// Admit runs the admission guard and the dispatch step. It returns false, leaving the store untouched,
// when both the prompt and the image are empty or a turn is already generating. Otherwise the
// generation flag is set, the user message and the empty model placeholder are appended and a session
// is created if none is active.
func (c *Coordinator) Admit(ctx context.Context, prompt, image string) (*Turn, bool) {
	prompt = strings.TrimSpace(prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	if (prompt == "" && image == "") || c.store.IsGenerating() {
		return nil, false
	}

	c.store.SetGenerating(true)
	c.store.AppendMessage(models.RoleUser, prompt, image)

	turn := &Turn{
		c:           c,
		prompt:      prompt,
		image:       image,
		session:     c.store.ChatHandle(),
		failureText: FailureContinuation,
	}

	if turn.session == nil {
		if len(c.store.Messages()) > 1 {
			c.logger.Warn("Chat session missing on follow-up turn, starting a new one")
		}
		turn.failureText = FailureFirstTurn

		session, err := c.llm.NewSession(ctx, c.Mode().SystemInstruction)
		if err != nil {
			turn.err = fmt.Errorf("failed to create chat session: %w", err)
		} else {
			turn.session = session
			c.store.SetChatHandle(session)
		}
	}

	turn.messageID = c.store.AppendMessage(models.RoleModel, "", "").ID

	return turn, true
}

// MessageID returns the id of the placeholder model message the turn writes to.
func (t *Turn) MessageID() string {
	return t.messageID
}

// Stream sends the request and replaces the placeholder content with the accumulated response after
// every chunk. On any error the placeholder gets the fixed failure text. The generation flag is cleared
// on every path.
func (t *Turn) Stream(ctx context.Context) Result {
	defer t.c.store.SetGenerating(false)

	content, err := t.fold(ctx)
	if err != nil {
		t.c.logger.Error("Generation failed",
			slog.String("messageID", t.messageID),
			slog.String(errLoggerKey, err.Error()))
		t.c.store.UpdateLastMessageContent(t.failureText)
		return Result{
			Outcome: OutcomeGenerationFailure,
			Content: t.failureText,
			Err:     fmt.Errorf("%w: %w", ErrGenerationFailure, err),
		}
	}

	return Result{
		Outcome: OutcomeSuccess,
		Content: content,
	}
}

func (t *Turn) fold(ctx context.Context) (string, error) {
	if t.err != nil {
		return "", t.err
	}

	parts, err := BuildParts(t.prompt, t.image)
	if err != nil {
		return "", fmt.Errorf("failed to build message parts: %w", err)
	}

	var sb strings.Builder
	for chunk, err := range t.session.SendMessageStream(ctx, parts) {
		if err != nil {
			return "", fmt.Errorf("failed to read stream: %w", err)
		}
		sb.WriteString(chunk)
		t.c.store.UpdateLastMessageContent(sb.String())
	}
	// A provider may end the stream early without an error once ctx is done.
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("stream interrupted: %w", err)
	}

	return sb.String(), nil
}

const errLoggerKey = "err"
