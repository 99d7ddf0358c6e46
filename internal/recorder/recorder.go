// Package recorder appends audit entries for completed orchestration
// calls. Losing an audit entry must never block the user-visible
// result, so persistence failures are logged and swallowed.
package recorder

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/wingman/internal/storage"
)

const defaultWindowDays = 7

// Store is the persistence surface the recorder needs.
type Store interface {
	SaveInteraction(storage.Interaction) error
	InteractionsSince(userID string, since time.Time) ([]storage.Interaction, error)
}

// Input describes one completed orchestration call. Result is the
// typed outcome and is serialized as the record's result union.
type Input struct {
	UserID       string
	TargetID     string
	Goal         string
	Mode         string
	Conversation string
	Result       any
}

// Recorder writes and reads the append-only interaction log.
type Recorder struct {
	store Store
	now   func() time.Time
}

// New creates a Recorder backed by the given store.
func New(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record appends one interaction. The returned record carries the
// generated ID and creation timestamp even when the write failed; the
// failure itself is only logged.
func (r *Recorder) Record(in Input) storage.Interaction {
	resultJSON, err := json.Marshal(in.Result)
	if err != nil {
		slog.Warn("marshalling interaction result", "mode", in.Mode, "error", err)
		resultJSON = []byte("null")
	}

	rec := storage.Interaction{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		TargetID:     in.TargetID,
		Goal:         in.Goal,
		Mode:         in.Mode,
		Conversation: in.Conversation,
		ResultJSON:   string(resultJSON),
		CreatedAt:    r.now().UTC(),
	}

	if err := r.store.SaveInteraction(rec); err != nil {
		slog.Warn("interaction log append failed", "mode", in.Mode, "user", in.UserID, "error", err)
	}
	return rec
}

// Query returns the user's interactions within the trailing windowDays
// calendar window, newest first. The window is anchored on record
// creation timestamps, not the query time of individual rows.
func (r *Recorder) Query(userID string, windowDays int) ([]storage.Interaction, error) {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	cutoff := r.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)
	return r.store.InteractionsSince(userID, cutoff)
}
