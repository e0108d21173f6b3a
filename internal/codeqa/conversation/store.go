// Package conversation holds the observable state of one question-answer session.
package conversation

import (
	"slices"
	"strings"
	"sync"

	"github.com/longkey1/codeqa/internal/codeqa"
)

// Status reports whether a turn is in flight.
type Status int

const (
	StatusIdle Status = iota
	StatusStreaming
)

func (s Status) String() string {
	if s == StatusStreaming {
		return "streaming"
	}
	return "idle"
}

// State is an immutable view of the conversation.
type State struct {
	Messages []codeqa.Message
	Status   Status
	// ExecutionTime is the server-reported duration of the latest completed turn.
	ExecutionTime *float64
	// LastContext is the retrieval context of the latest turn that carried one.
	LastContext *string
}

// LastMessage returns the newest message, if any.
func (s State) LastMessage() (codeqa.Message, bool) {
	if len(s.Messages) == 0 {
		return codeqa.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastAssistantText returns the text of the trailing assistant message, if the
// newest message is one.
func (s State) LastAssistantText() (string, bool) {
	m, ok := s.LastMessage()
	if !ok || m.Role != codeqa.RoleAssistant {
		return "", false
	}
	return m.Text, true
}

// Store owns the conversation state. All mutations are serialized; observers
// registered with Subscribe receive a snapshot after each one, in mutation order.
type Store struct {
	mu    sync.Mutex
	state State

	// pubMu is held across a mutation and its notification so snapshots reach
	// observers in the order the mutations happened.
	pubMu     sync.Mutex
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn func(State)
}

// NewStore creates an empty, idle Store.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers fn to receive a snapshot after every mutation. Observers
// run on the mutating goroutine in registration order and must not call back
// into the Store's mutators. The returned function unregisters fn.
func (s *Store) Subscribe(fn func(State)) func() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})

	return func() {
		s.pubMu.Lock()
		defer s.pubMu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(o observer) bool {
			return o.id == id
		})
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// AppendUserMessage adds the user's question. Blank text is rejected with
// codeqa.ErrInvalidInput and leaves the state untouched.
func (s *Store) AppendUserMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return codeqa.ErrInvalidInput
	}
	s.mutate(func(st *State) {
		st.Messages = append(st.Messages, codeqa.NewMessage(codeqa.RoleUser, text))
	})
	return nil
}

// BeginAssistantTurn appends an empty assistant message, marks the conversation
// streaming and clears the previous turn's execution time and context.
func (s *Store) BeginAssistantTurn() {
	s.mutate(func(st *State) {
		st.Messages = append(st.Messages, codeqa.NewMessage(codeqa.RoleAssistant, ""))
		st.Status = StatusStreaming
		st.ExecutionTime = nil
		st.LastContext = nil
	})
}

// UpdateLastAssistantMessage replaces the trailing assistant message's text
// while a turn is streaming. A completed reply is never touched again, so the
// call does nothing once the turn has ended or when the newest message is not
// an assistant message. Observers are not notified of an ignored update.
func (s *Store) UpdateLastAssistantMessage(text string) {
	s.mutateIf(func(st *State) bool {
		n := len(st.Messages)
		if st.Status != StatusStreaming || n == 0 || st.Messages[n-1].Role != codeqa.RoleAssistant {
			return false
		}
		st.Messages[n-1].Text = text
		return true
	})
}

// SetExecutionTime records the server-reported duration of the current turn.
func (s *Store) SetExecutionTime(seconds float64) {
	s.mutate(func(st *State) {
		st.ExecutionTime = &seconds
	})
}

// SetLastContext records the retrieval context of the current turn.
func (s *Store) SetLastContext(context string) {
	s.mutate(func(st *State) {
		st.LastContext = &context
	})
}

// EndTurn marks the conversation idle.
func (s *Store) EndTurn() {
	s.mutate(func(st *State) {
		st.Status = StatusIdle
	})
}

// FailTurn shows err as the assistant's reply and marks the conversation idle.
// The trailing assistant message is overwritten when there is one; otherwise a
// new assistant message is appended.
func (s *Store) FailTurn(err error) {
	text := codeqa.ErrorText(err)
	s.mutate(func(st *State) {
		n := len(st.Messages)
		if n > 0 && st.Messages[n-1].Role == codeqa.RoleAssistant {
			st.Messages[n-1].Text = text
		} else {
			st.Messages = append(st.Messages, codeqa.NewMessage(codeqa.RoleAssistant, text))
		}
		st.Status = StatusIdle
	})
}

func (s *Store) mutate(fn func(*State)) {
	s.mutateIf(func(st *State) bool {
		fn(st)
		return true
	})
}

// mutateIf applies fn and notifies observers only when fn reports a change.
func (s *Store) mutateIf(fn func(*State) bool) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	changed := fn(&s.state)
	snapshot := s.copyLocked()
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, o := range s.observers {
		o.fn(snapshot)
	}
}

func (s *Store) copyLocked() State {
	out := State{Status: s.state.Status}
	if s.state.Messages != nil {
		out.Messages = make([]codeqa.Message, len(s.state.Messages))
		copy(out.Messages, s.state.Messages)
	}
	if s.state.ExecutionTime != nil {
		v := *s.state.ExecutionTime
		out.ExecutionTime = &v
	}
	if s.state.LastContext != nil {
		v := *s.state.LastContext
		out.LastContext = &v
	}
	return out
}
