package store

// Status is the result of one store operation
type Status int

const (
	// StatusOK means the server confirmed the operation and the collection was updated
	StatusOK Status = iota
	// StatusFailed means the remote call failed; the collection is unchanged
	StatusFailed
	// StatusDeclined means a delete was not confirmed; no request was sent
	StatusDeclined
	// StatusStale means a newer request for the same entity was issued before
	// this one resolved, so its response was discarded
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusDeclined:
		return "declined"
	case StatusStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Outcome is returned by every store operation so callers never have to read
// the shared error slot to learn how their own call went.
type Outcome struct {
	Status  Status
	Err     error
	Message string // human-readable, set when Status is StatusFailed
}

// OK reports whether the operation was confirmed and applied
func (o Outcome) OK() bool { return o.Status == StatusOK }

func ok() Outcome { return Outcome{Status: StatusOK} }

// Confirmer asks the user to approve a destructive action
type Confirmer func(prompt string) bool

// AlwaysConfirm approves every prompt (used for --yes)
func AlwaysConfirm(string) bool { return true }
