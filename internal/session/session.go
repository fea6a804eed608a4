// Package session owns the ephemeral per-browser-session state of one
// participant: identifier, assigned variant, accumulated transcript
// and the task progression state machine. Nothing here is shared
// between sessions; durable state lives in the assignment ledger and
// the chat log.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/mkosmas1/LLM-Alignment/internal/chatlog"
)

var (
	// ErrTaskIncomplete means advancing was attempted before any
	// interaction happened on the current task.
	ErrTaskIncomplete = errors.New("current task not completed")
	// ErrNoMoreTasks means advancing was attempted past the final task.
	ErrNoMoreTasks = errors.New("already at final task")
	// ErrStudyIncomplete means the survey was requested before the
	// terminal task was completed.
	ErrStudyIncomplete = errors.New("study not completed")
)

type Session struct {
	mu sync.Mutex

	userID    string
	createdAt time.Time
	taskCount int

	variant          string
	taskIndex        int
	interacted       []bool
	landingDismissed bool
	surveyRequested  bool
	turns            []chatlog.Turn
}

func newSession(userID string, taskCount int) *Session {
	return &Session{
		userID:     userID,
		createdAt:  time.Now().UTC(),
		taskCount:  taskCount,
		interacted: make([]bool, taskCount),
	}
}

func (s *Session) UserID() string       { return s.userID }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) Variant() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variant
}

// SetVariant records the ledger's decision. First write wins; a
// participant keeps one variant for the whole session.
func (s *Session) SetVariant(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.variant == "" {
		s.variant = v
	}
}

func (s *Session) TaskIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskIndex
}

func (s *Session) LandingDismissed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.landingDismissed
}

func (s *Session) DismissLanding() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.landingDismissed = true
}

// RecordTurn appends a completed turn to the transcript and marks the
// turn's task as interacted. Pure in-memory, cannot fail.
func (s *Session) RecordTurn(t chatlog.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	if t.TaskIndex >= 0 && t.TaskIndex < len(s.interacted) {
		s.interacted[t.TaskIndex] = true
	}
}

// MarkInteraction sets the completion bit for a task that signals
// completion on its own, such as the quiz.
func (s *Session) MarkInteraction(taskIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if taskIndex >= 0 && taskIndex < len(s.interacted) {
		s.interacted[taskIndex] = true
	}
}

func (s *Session) Interacted(taskIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return taskIndex >= 0 && taskIndex < len(s.interacted) && s.interacted[taskIndex]
}

// CanAdvance reports whether the gate for leaving the current task is
// satisfied.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interacted[s.taskIndex]
}

// Advance moves to the next task. Permitted only after an interaction
// on the current task; the index never decreases and never moves past
// the final task.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.interacted[s.taskIndex] {
		return ErrTaskIncomplete
	}
	if s.taskIndex >= s.taskCount-1 {
		return ErrNoMoreTasks
	}
	s.taskIndex++
	return nil
}

func (s *Session) AtFinalTask() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskIndex == s.taskCount-1
}

// CanRequestSurvey reports whether the terminal condition is reached:
// final task active and completed.
func (s *Session) CanRequestSurvey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskIndex == s.taskCount-1 && s.interacted[s.taskIndex]
}

// RequestSurvey flips the terminal flag. Irreversible within the
// session.
func (s *Session) RequestSurvey() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taskIndex != s.taskCount-1 || !s.interacted[s.taskIndex] {
		return ErrStudyIncomplete
	}
	s.surveyRequested = true
	return nil
}

func (s *Session) SurveyRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surveyRequested
}

// Turns returns a copy of the full session transcript in submission
// order.
func (s *Session) Turns() []chatlog.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chatlog.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// TaskTurns returns the transcript scoped to one task. History is
// retained across tasks; the view filters by index.
func (s *Session) TaskTurns(taskIndex int) []chatlog.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []chatlog.Turn
	for _, t := range s.turns {
		if t.TaskIndex == taskIndex {
			out = append(out, t)
		}
	}
	return out
}
