package chatlog

import "time"

// Turn is one completed prompt/response round-trip. Immutable once
// created; created only after the completion service produced a
// response, so half-formed rows never reach the log.
type Turn struct {
	Timestamp time.Time
	UserID    string
	Variant   string
	TaskIndex int
	Prompt    string
	Response  string
}

// key identifies a turn for deduplication. Two genuinely distinct
// turns repeating identical prompt and response text for the same
// participant and task collapse to one row; that matches the original
// pipeline and is accepted.
type key struct {
	UserID    string
	TaskIndex int
	Prompt    string
	Response  string
}

func (t Turn) dedupKey() key {
	return key{UserID: t.UserID, TaskIndex: t.TaskIndex, Prompt: t.Prompt, Response: t.Response}
}
