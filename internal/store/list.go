package store

import (
	"context"
	"log"
	"sync"
)

// Remote is the service side of one collection
type Remote[T, D, P any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id int64, patch P) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Messages are the user-facing texts of one collection
type Messages struct {
	Noun          string // used in diagnostics, e.g. "task"
	Load          string
	Refresh       string
	Create        string
	Update        string
	Delete        string
	ConfirmDelete string
}

// List is an ordered collection that only changes after the server confirms
// a change. It is safe for concurrent use.
//
// A single "last error" slot backs the section banner: every attempt clears
// it and every failure overwrites it, so the banner always reflects the most
// recent operation. Per-call results are returned as Outcome values.
//
// Each entity id carries a request token. A response is applied only if its
// token is still the latest issued for that id; otherwise it is discarded.
type List[T, D, P any] struct {
	remote Remote[T, D, P]
	idOf   func(T) int64
	msgs   Messages
	logger *log.Logger

	mu        sync.Mutex
	items     []T
	loaded    bool
	lastErr   string
	seq       uint64
	loadToken uint64
	tokens    map[int64]uint64
}

// NewList creates an empty collection backed by remote
func NewList[T, D, P any](remote Remote[T, D, P], idOf func(T) int64, msgs Messages, logger *log.Logger) *List[T, D, P] {
	if logger == nil {
		logger = log.Default()
	}
	return &List[T, D, P]{
		remote: remote,
		idOf:   idOf,
		msgs:   msgs,
		logger: logger,
		tokens: make(map[int64]uint64),
	}
}

// Items returns a copy of the collection in display order
func (l *List[T, D, P]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of entities
func (l *List[T, D, P]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Get returns the entity with id, if present
func (l *List[T, D, P]) Get(id int64) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Loaded reports whether a Load has succeeded at least once
func (l *List[T, D, P]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// LastError returns the banner message of the most recent failed operation,
// or "" if the most recent operation did not fail
func (l *List[T, D, P]) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// ConfirmDeletePrompt is the text shown before a delete
func (l *List[T, D, P]) ConfirmDeletePrompt() string {
	return l.msgs.ConfirmDelete
}

// Load replaces the collection with the server's. On failure the previous
// contents are kept. Entities touched by a request issued after the load keep
// whatever that request left: a later delete stays deleted, a later create
// stays in front, a later update or refresh is not rolled back.
func (l *List[T, D, P]) Load(ctx context.Context) Outcome {
	l.mu.Lock()
	l.lastErr = ""
	l.seq++
	token := l.seq
	l.loadToken = token
	l.mu.Unlock()

	items, err := l.remote.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.loadToken {
		return Outcome{Status: StatusStale, Err: err}
	}
	if err != nil {
		return l.failLocked("load", l.msgs.Load, err)
	}
	l.items = l.mergeLocked(items, token)
	l.loaded = true
	return ok()
}

// mergeLocked builds the collection from a snapshot requested at token
func (l *List[T, D, P]) mergeLocked(snapshot []T, token uint64) []T {
	seen := make(map[int64]bool, len(snapshot))
	merged := make([]T, 0, len(snapshot))
	for _, item := range snapshot {
		id := l.idOf(item)
		seen[id] = true
		if l.tokens[id] <= token {
			merged = append(merged, item)
			continue
		}
		if i := l.indexOf(id); i >= 0 {
			merged = append(merged, l.items[i])
		}
	}

	// confirmed after the snapshot was requested; l.items is newest first
	var created []T
	for _, item := range l.items {
		id := l.idOf(item)
		if !seen[id] && l.tokens[id] > token {
			created = append(created, item)
		}
	}
	return append(created, merged...)
}

// Create sends draft to the server and prepends the returned entity
func (l *List[T, D, P]) Create(ctx context.Context, draft D) (T, Outcome) {
	l.mu.Lock()
	l.lastErr = ""
	l.mu.Unlock()

	created, err := l.remote.Create(ctx, draft)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		var zero T
		return zero, l.failLocked("create", l.msgs.Create, err)
	}
	// a concurrent Load may already have brought the entity in
	if i := l.indexOf(l.idOf(created)); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	l.items = append([]T{created}, l.items...)
	l.seq++
	l.tokens[l.idOf(created)] = l.seq
	return created, ok()
}

// Update sends patch for id and replaces the entity in place with the
// server's copy
func (l *List[T, D, P]) Update(ctx context.Context, id int64, patch P) (T, Outcome) {
	token := l.begin(id)
	updated, err := l.remote.Update(ctx, id, patch)
	return l.settleReplace(id, token, "update", l.msgs.Update, updated, err)
}

// Refresh re-fetches one entity and replaces it in place
func (l *List[T, D, P]) Refresh(ctx context.Context, id int64) (T, Outcome) {
	token := l.begin(id)
	fetched, err := l.remote.Get(ctx, id)
	return l.settleReplace(id, token, "refresh", l.msgs.Refresh, fetched, err)
}

// Delete asks confirm and, if approved, deletes id on the server and then
// locally. A nil confirm is treated as approval.
func (l *List[T, D, P]) Delete(ctx context.Context, id int64, confirm Confirmer) Outcome {
	if confirm != nil && !confirm(l.msgs.ConfirmDelete) {
		return Outcome{Status: StatusDeclined}
	}

	token := l.begin(id)
	err := l.remote.Delete(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		if token != l.tokens[id] {
			return Outcome{Status: StatusStale, Err: err}
		}
		return l.failLocked("delete", l.msgs.Delete, err)
	}
	// the server no longer has the entity, so later responses for it are moot
	l.seq++
	l.tokens[id] = l.seq
	if i := l.indexOf(id); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	return ok()
}

func (l *List[T, D, P]) begin(id int64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastErr = ""
	l.seq++
	l.tokens[id] = l.seq
	return l.seq
}

func (l *List[T, D, P]) settleReplace(id int64, token uint64, op, msg string, v T, err error) (T, Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	if token != l.tokens[id] {
		return zero, Outcome{Status: StatusStale, Err: err}
	}
	if err != nil {
		return zero, l.failLocked(op, msg, err)
	}
	if i := l.indexOf(id); i >= 0 {
		l.items[i] = v
	}
	return v, ok()
}

func (l *List[T, D, P]) failLocked(op, msg string, err error) Outcome {
	l.lastErr = msg
	l.logger.Printf("Error %s %s: %v", opVerb(op), l.msgs.Noun, err)
	return Outcome{Status: StatusFailed, Err: err, Message: msg}
}

func (l *List[T, D, P]) indexOf(id int64) int {
	for i, item := range l.items {
		if l.idOf(item) == id {
			return i
		}
	}
	return -1
}

func opVerb(op string) string {
	switch op {
	case "load":
		return "loading"
	case "create":
		return "creating"
	case "update":
		return "updating"
	case "delete":
		return "deleting"
	default:
		return "refreshing"
	}
}
