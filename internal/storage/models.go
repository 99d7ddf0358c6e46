package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction modes. Each completed orchestration call that produces an
// audit entry carries exactly one of these.
const (
	ModeGetReply      = "get-reply"
	ModeStartTopic    = "start-topic"
	ModeAnalyzeIntent = "analyze-intent"
)

// Interaction is one durable audit entry of a completed orchestration
// call. Records are append-only: never edited or deleted.
type Interaction struct {
	ID           string
	UserID       string
	TargetID     string
	Goal         string
	Mode         string
	Conversation string
	ResultJSON   string // result union serialized per the mode's contract
	CreatedAt    time.Time
}

// Target is a person the user converses with, along with the free-text
// profile used to personalize prompts.
type Target struct {
	ID          string
	UserID      string
	Name        string
	ProfileJSON string
	CreatedAt   time.Time
}
