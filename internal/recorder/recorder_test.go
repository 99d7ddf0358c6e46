package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/kalambet/wingman/internal/storage"
)

// mockStore implements Store for testing.
type mockStore struct {
	saved   []storage.Interaction
	saveErr error

	queried struct {
		userID string
		since  time.Time
	}
	queryResult []storage.Interaction
}

func (m *mockStore) SaveInteraction(i storage.Interaction) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, i)
	return nil
}

func (m *mockStore) InteractionsSince(userID string, since time.Time) ([]storage.Interaction, error) {
	m.queried.userID = userID
	m.queried.since = since
	return m.queryResult, nil
}

func TestRecord_PersistsWithIDAndTimestamp(t *testing.T) {
	store := &mockStore{}
	r := New(store)

	rec := r.Record(Input{
		UserID:       "user-1",
		TargetID:     "target-1",
		Goal:         "dating",
		Mode:         storage.ModeStartTopic,
		Conversation: "Category: travel",
		Result:       []string{"a", "b", "c"},
	})

	if rec.ID == "" {
		t.Error("record has no ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("record has no timestamp")
	}
	if rec.ResultJSON != `["a","b","c"]` {
		t.Errorf("result_json = %s", rec.ResultJSON)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(store.saved))
	}
}

func TestRecord_SwallowsPersistenceFailure(t *testing.T) {
	store := &mockStore{saveErr: errors.New("disk full")}
	r := New(store)

	// Must not panic or surface the error; the caller's flow continues.
	rec := r.Record(Input{UserID: "u", Mode: storage.ModeGetReply, Result: "x"})
	if rec.ID == "" {
		t.Error("record should still carry an ID after a failed write")
	}
}

func TestQuery_WindowCutoff(t *testing.T) {
	store := &mockStore{}
	r := New(store)
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	if _, err := r.Query("user-1", 7); err != nil {
		t.Fatalf("query: %v", err)
	}

	wantCutoff := fixed.Add(-7 * 24 * time.Hour)
	if !store.queried.since.Equal(wantCutoff) {
		t.Errorf("cutoff = %v, want %v", store.queried.since, wantCutoff)
	}
	if store.queried.userID != "user-1" {
		t.Errorf("userID = %s", store.queried.userID)
	}
}

func TestQuery_DefaultWindow(t *testing.T) {
	store := &mockStore{}
	r := New(store)
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Query("user-1", 0)
	if got := fixed.Sub(store.queried.since); got != 7*24*time.Hour {
		t.Errorf("default window = %v, want 168h", got)
	}
}
