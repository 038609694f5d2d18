// Package session holds the transient state of a create or edit form: a draft
// copy of the editable fields, local validation and a single in-flight
// submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tgienger/taskdeck/internal/store"
)

var (
	// ErrSubmitting is returned when the session is busy with a submission
	ErrSubmitting = errors.New("submission already in progress")
	// ErrUnknownField is returned by Set for a field the draft does not have
	ErrUnknownField = errors.New("unknown field")
)

// ValidationError is a local validation failure. The remote layer is never
// contacted when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Mode tells whether a session creates a new entity or edits an existing one
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Session is a draft of type D bound to a store operation
type Session[D any] struct {
	mode Mode
	id   int64

	setField func(d *D, name, value string) error
	validate func(d D) *ValidationError
	commit   func(ctx context.Context, d D) store.Outcome

	mu         sync.Mutex
	draft      D
	submitting bool
}

// Mode returns whether the session creates or edits
func (s *Session[D]) Mode() Mode { return s.mode }

// ID returns the id of the edited entity, 0 in create mode
func (s *Session[D]) ID() int64 { return s.id }

// Draft returns a copy of the current draft
func (s *Session[D]) Draft() D {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Submitting reports whether a submission is in flight
func (s *Session[D]) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Set assigns value to the named draft field
func (s *Session[D]) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitting
	}
	return s.setField(&s.draft, name, value)
}

// Validate checks the draft without submitting it
func (s *Session[D]) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if verr := s.validate(s.draft); verr != nil {
		return verr
	}
	return nil
}

// Start validates the draft and marks the session as submitting. The
// returned function performs the remote call and must be called exactly once;
// it clears the submitting flag when the call settles. Splitting the two lets
// a UI show "Saving..." before the request goes out.
func (s *Session[D]) Start(ctx context.Context) (func() store.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return nil, ErrSubmitting
	}
	if verr := s.validate(s.draft); verr != nil {
		return nil, verr
	}
	s.submitting = true
	draft := s.draft

	var once sync.Once
	var out store.Outcome
	return func() store.Outcome {
		once.Do(func() {
			out = s.commit(ctx, draft)
			s.mu.Lock()
			s.submitting = false
			s.mu.Unlock()
		})
		return out
	}, nil
}

// Submit validates and sends the draft. On failure the draft is kept so the
// user can retry.
func (s *Session[D]) Submit(ctx context.Context) (store.Outcome, error) {
	commit, err := s.Start(ctx)
	if err != nil {
		return store.Outcome{}, err
	}
	return commit(), nil
}

func unknownField(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}
