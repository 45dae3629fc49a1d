package conversation

import (
	"slices"
	"sync"

	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/google/uuid"
)

// Snapshot is an immutable view of the store taken right after a mutation.
type Snapshot struct {
	Messages   []models.Message
	Generating bool
	HasChat    bool
}

// Store is the single source of truth for the message log, the generation flag and the active chat
// session. Every mutation notifies the subscribers synchronously, in mutation order, with a snapshot of
// the state it produced, so observers never see a partially applied change.
//
// Only the Coordinator is expected to write to the store. The mutex only keeps the state consistent
// for concurrent readers; it gives no reentrancy protection to SetGenerating.
type Store struct {
	mu         sync.RWMutex
	messages   []models.Message
	generating bool
	chat       Session

	notifyMu    sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore creates an empty store: no messages, not generating, no chat session.
func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to be called after every mutation. The returned function removes the
// subscription. fn runs on the mutating goroutine and must not mutate the store.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subscribers, id)
	}
}

// AppendMessage creates a message with a fresh id and pushes it to the end of the log. It returns the
// created message.
func (s *Store) AppendMessage(role models.Role, content, image string) models.Message {
	msg := models.Message{
		ID:      uuid.New().String(),
		Role:    role,
		Content: content,
		Image:   image,
	}
	s.mutate(func() bool {
		s.messages = append(s.messages, msg)
		return true
	})
	return msg
}

// UpdateLastMessageContent replaces the content of the last message if it is a model message. It is a
// silent no-op otherwise, and observers are not notified in that case.
func (s *Store) UpdateLastMessageContent(content string) {
	s.mutate(func() bool {
		if len(s.messages) == 0 {
			return false
		}
		last := &s.messages[len(s.messages)-1]
		if last.Role != models.RoleModel {
			return false
		}
		last.Content = content
		return true
	})
}

// SetGenerating sets the generation flag.
func (s *Store) SetGenerating(generating bool) {
	s.mutate(func() bool {
		s.generating = generating
		return true
	})
}

// SetChatHandle stores the active chat session, replacing any previous one.
func (s *Store) SetChatHandle(chat Session) {
	s.mutate(func() bool {
		s.chat = chat
		return true
	})
}

// Reset clears the log, the generation flag and the chat session.
func (s *Store) Reset() {
	s.mutate(func() bool {
		s.messages = nil
		s.generating = false
		s.chat = nil
		return true
	})
}

// Messages returns a copy of the message log.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// IsGenerating reports whether a streaming cycle is in progress.
func (s *Store) IsGenerating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generating
}

// ChatHandle returns the active chat session, or nil before the first turn.
func (s *Store) ChatHandle() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Messages:   slices.Clone(s.messages),
		Generating: s.generating,
		HasChat:    s.chat != nil,
	}
}

// mutate applies fn under the write lock and, when fn reports a change, notifies the subscribers. The
// notify lock is taken before the write lock is released so notifications keep mutation order.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, sub := range s.subscribers {
		sub(snap)
	}
}
