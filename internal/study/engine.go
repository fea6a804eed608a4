// Package study is the experiment engine: it assigns variants through
// the ledger, shapes variant-conditioned completion requests, records
// turns and gates task progression up to the survey handoff.
package study

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mkosmas1/LLM-Alignment/internal/assignment"
	"github.com/mkosmas1/LLM-Alignment/internal/chatlog"
	"github.com/mkosmas1/LLM-Alignment/internal/config"
	"github.com/mkosmas1/LLM-Alignment/internal/llm"
	"github.com/mkosmas1/LLM-Alignment/internal/session"
	"github.com/mkosmas1/LLM-Alignment/internal/tasks"
)

type Engine struct {
	llm      llm.Client
	ledger   *assignment.Ledger
	pipeline *chatlog.Pipeline
	sessions *session.Manager
	tasks    []tasks.Task

	// variant tag -> system prompt text; variants without an entry run
	// without a leading instruction message.
	variantPrompts map[string]string

	surveyBaseURL string
	timing        config.AssignmentTiming
	flushMode     config.FlushMode
}

func NewEngine(
	client llm.Client,
	ledger *assignment.Ledger,
	pipeline *chatlog.Pipeline,
	sessions *session.Manager,
	taskList []tasks.Task,
	variantPrompts map[string]string,
	surveyBaseURL string,
	timing config.AssignmentTiming,
	flushMode config.FlushMode,
) *Engine {
	return &Engine{
		llm:            client,
		ledger:         ledger,
		pipeline:       pipeline,
		sessions:       sessions,
		tasks:          taskList,
		variantPrompts: variantPrompts,
		surveyBaseURL:  surveyBaseURL,
		timing:         timing,
		flushMode:      flushMode,
	}
}

func (e *Engine) Tasks() []tasks.Task        { return e.tasks }
func (e *Engine) Sessions() *session.Manager { return e.sessions }
func (e *Engine) Task(i int) (tasks.Task, bool) {
	if i < 0 || i >= len(e.tasks) {
		return tasks.Task{}, false
	}
	return e.tasks[i], true
}

// StartSession creates a fresh participant session. With eager timing
// the variant is assigned immediately; with lazy timing it waits for
// the first submitted prompt (participants who never prompt stay out
// of the balance counts).
func (e *Engine) StartSession(ctx context.Context) *session.Session {
	s := e.sessions.Create()
	if e.timing == config.TimingEager {
		if _, err := e.ensureVariant(ctx, s); err != nil {
			log.Printf("eager assignment for %s failed: %v", s.UserID(), err)
		}
	}
	return s
}

// HandlePrompt runs one conversation turn on the current task: ensure
// the participant has a variant, build the variant-conditioned message
// sequence, call the completion service and record the finished turn.
// On completion failure the error propagates and nothing is logged.
func (e *Engine) HandlePrompt(ctx context.Context, s *session.Session, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}
	idx := s.TaskIndex()
	task, ok := e.Task(idx)
	if !ok || task.Kind != tasks.KindChat {
		return "", fmt.Errorf("task %d does not accept chat messages", idx)
	}

	variant, err := e.ensureVariant(ctx, s)
	if err != nil {
		return "", err
	}

	msgs := e.buildMessages(s, idx, variant, prompt)
	resp, err := e.llm.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	log.Printf("completion for %s [variant=%s task=%d model=%s tokens=%d]",
		s.UserID(), variant, idx, resp.Model, resp.TotalTokens)

	turn := chatlog.Turn{
		Timestamp: time.Now().UTC(),
		UserID:    s.UserID(),
		Variant:   variant,
		TaskIndex: idx,
		Prompt:    prompt,
		Response:  resp.Content,
	}
	s.RecordTurn(turn)

	if e.flushMode == config.FlushPerTurn {
		if err := e.pipeline.Flush(ctx, []chatlog.Turn{turn}); err != nil {
			log.Printf("chat log flush for %s failed (will retry at next checkpoint): %v", s.UserID(), err)
		}
	}
	return resp.Content, nil
}

// Advance moves the session to the next task. In checkpoint mode the
// completed task's turns are flushed at this boundary.
func (e *Engine) Advance(ctx context.Context, s *session.Session) error {
	if err := s.Advance(); err != nil {
		return err
	}
	if e.flushMode == config.FlushCheckpoint {
		if err := e.pipeline.Flush(ctx, s.Turns()); err != nil {
			log.Printf("chat log flush for %s failed (will retry at next checkpoint): %v", s.UserID(), err)
		}
	}
	return nil
}

// SubmitQuiz completes the quiz task. Submission itself is the
// completion signal; answers are not graded. This is also the flush
// checkpoint that persists the whole session transcript.
func (e *Engine) SubmitQuiz(ctx context.Context, s *session.Session) error {
	idx := s.TaskIndex()
	task, ok := e.Task(idx)
	if !ok || task.Kind != tasks.KindQuiz {
		return fmt.Errorf("task %d is not a quiz", idx)
	}
	s.MarkInteraction(idx)
	if err := e.pipeline.Flush(ctx, s.Turns()); err != nil {
		log.Printf("chat log flush for %s failed (will retry at next checkpoint): %v", s.UserID(), err)
	}
	return nil
}

// RequestSurvey flips the session into its terminal state and returns
// the external survey URL carrying the variant and participant id.
func (e *Engine) RequestSurvey(ctx context.Context, s *session.Session) (string, error) {
	if err := s.RequestSurvey(); err != nil {
		return "", err
	}
	variant, err := e.ensureVariant(ctx, s)
	if err != nil {
		return "", err
	}
	return BuildSurveyURL(e.surveyBaseURL, variant, s.UserID())
}

// SurveyURL rebuilds the handoff URL for a session already in the
// terminal state.
func (e *Engine) SurveyURL(s *session.Session) (string, error) {
	if !s.SurveyRequested() {
		return "", session.ErrStudyIncomplete
	}
	return BuildSurveyURL(e.surveyBaseURL, s.Variant(), s.UserID())
}

func (e *Engine) ensureVariant(ctx context.Context, s *session.Session) (string, error) {
	if v := s.Variant(); v != "" {
		return v, nil
	}
	v, err := e.ledger.GetOrAssign(ctx, s.UserID())
	if err != nil {
		return "", fmt.Errorf("assign variant: %w", err)
	}
	s.SetVariant(v)
	return v, nil
}

// buildMessages assembles the ordered role-tagged sequence: at most
// one leading system prompt depending on variant, the prior turns of
// the current task only, then the new prompt.
func (e *Engine) buildMessages(s *session.Session, taskIndex int, variant, prompt string) []llm.Message {
	var msgs []llm.Message
	if sp := e.variantPrompts[variant]; sp != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: sp})
	}
	for _, t := range s.TaskTurns(taskIndex) {
		msgs = append(msgs, llm.Message{Role: "user", Content: t.Prompt})
		msgs = append(msgs, llm.Message{Role: "assistant", Content: t.Response})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: prompt})
	return msgs
}
