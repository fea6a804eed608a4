package study

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkosmas1/LLM-Alignment/internal/assignment"
	"github.com/mkosmas1/LLM-Alignment/internal/blobstore"
	"github.com/mkosmas1/LLM-Alignment/internal/chatlog"
	"github.com/mkosmas1/LLM-Alignment/internal/config"
	"github.com/mkosmas1/LLM-Alignment/internal/llm"
	"github.com/mkosmas1/LLM-Alignment/internal/session"
	"github.com/mkosmas1/LLM-Alignment/internal/tasks"
)

type fakeLLM struct {
	lastMessages []llm.Message
	err          error
}

func (f *fakeLLM) Generate(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	f.lastMessages = messages
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: "echo: " + messages[len(messages)-1].Content, Model: "fake"}, nil
}

func testTasks() []tasks.Task {
	return []tasks.Task{
		{Kind: tasks.KindChat, Description: "first"},
		{Kind: tasks.KindChat, Description: "second"},
		{Kind: tasks.KindQuiz, Description: "quiz", Questions: []tasks.Question{
			{Text: "q", Options: []string{"a", "b"}, Answer: "a"},
		}},
	}
}

func newTestEngine(t *testing.T, client llm.Client, timing config.AssignmentTiming, flush config.FlushMode) (*Engine, *blobstore.MemoryStore) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	dir := t.TempDir()
	ledger, err := assignment.NewLedger(store, filepath.Join(dir, "assignments.csv"), []string{"A", "B"})
	if err != nil {
		t.Fatalf("init ledger: %v", err)
	}
	pipeline, err := chatlog.NewPipeline(store, filepath.Join(dir, "chat_logs.csv"))
	if err != nil {
		t.Fatalf("init pipeline: %v", err)
	}
	taskList := testTasks()
	prompts := map[string]string{"A": "be aligned"}
	e := NewEngine(client, ledger, pipeline, session.NewManager(len(taskList)), taskList,
		prompts, "https://example.com/survey", timing, flush)
	return e, store
}

func TestLazyAssignmentWaitsForFirstPrompt(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, &fakeLLM{}, config.TimingLazy, config.FlushCheckpoint)

	s := e.StartSession(ctx)
	if s.Variant() != "" {
		t.Fatalf("lazy session has variant %q before first prompt", s.Variant())
	}

	resp, err := e.HandlePrompt(ctx, s, "hello")
	if err != nil {
		t.Fatalf("handle prompt: %v", err)
	}
	if !strings.HasPrefix(resp, "echo: ") {
		t.Fatalf("unexpected response %q", resp)
	}
	if s.Variant() == "" {
		t.Fatalf("variant not assigned after first prompt")
	}
}

func TestEagerAssignmentAtSessionStart(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, &fakeLLM{}, config.TimingEager, config.FlushCheckpoint)

	s := e.StartSession(ctx)
	if s.Variant() == "" {
		t.Fatalf("eager session has no variant at start")
	}
}

func TestVariantConditionedMessages(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{}
	e, _ := newTestEngine(t, client, config.TimingLazy, config.FlushCheckpoint)

	s := e.StartSession(ctx)
	// pin the arm with a system prompt so message shaping is deterministic
	s.SetVariant("A")

	if _, err := e.HandlePrompt(ctx, s, "first question"); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if _, err := e.HandlePrompt(ctx, s, "second question"); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	msgs := client.lastMessages
	want := []struct{ role, content string }{
		{"system", "be aligned"},
		{"user", "first question"},
		{"assistant", "echo: first question"},
		{"user", "second question"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("want %d messages, got %d: %+v", len(want), len(msgs), msgs)
	}
	for i, w := range want {
		if msgs[i].Role != w.role || msgs[i].Content != w.content {
			t.Fatalf("message %d mismatch: %+v", i, msgs[i])
		}
	}
}

func TestNoSystemPromptForUninstructedVariant(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{}
	e, _ := newTestEngine(t, client, config.TimingLazy, config.FlushCheckpoint)

	s := e.StartSession(ctx)
	s.SetVariant("B") // no prompt configured for B

	if _, err := e.HandlePrompt(ctx, s, "hi"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if client.lastMessages[0].Role != "user" {
		t.Fatalf("uninstructed variant got a leading %q message", client.lastMessages[0].Role)
	}
}

func TestCompletionFailureLogsNothing(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, &fakeLLM{err: fmt.Errorf("model down")}, config.TimingLazy, config.FlushPerTurn)

	s := e.StartSession(ctx)
	if _, err := e.HandlePrompt(ctx, s, "hello"); err == nil {
		t.Fatalf("completion failure should propagate")
	}
	if len(s.Turns()) != 0 {
		t.Fatalf("failed turn was recorded")
	}
	if _, err := store.Get(ctx, "chat_logs.csv"); err == nil {
		t.Fatalf("failed turn was flushed")
	}
}

func TestPerTurnFlush(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, &fakeLLM{}, config.TimingLazy, config.FlushPerTurn)

	s := e.StartSession(ctx)
	if _, err := e.HandlePrompt(ctx, s, "hello"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if _, err := store.Get(ctx, "chat_logs.csv"); err != nil {
		t.Fatalf("per-turn mode did not flush: %v", err)
	}
}

func TestQuizCheckpointFlushesTranscript(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, &fakeLLM{}, config.TimingLazy, config.FlushCheckpoint)

	s := e.StartSession(ctx)
	if _, err := e.HandlePrompt(ctx, s, "task one message"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if err := e.Advance(ctx, s); err != nil {
		t.Fatalf("advance to task 1: %v", err)
	}
	if _, err := e.HandlePrompt(ctx, s, "task two message"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if err := e.Advance(ctx, s); err != nil {
		t.Fatalf("advance to quiz: %v", err)
	}

	// messages are rejected on the quiz task
	if _, err := e.HandlePrompt(ctx, s, "chatting at the quiz"); err == nil {
		t.Fatalf("quiz task accepted a chat message")
	}

	if err := e.SubmitQuiz(ctx, s); err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if !s.CanRequestSurvey() {
		t.Fatalf("quiz submission should complete the final task")
	}

	data, err := store.Get(ctx, "chat_logs.csv")
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	for _, want := range []string{"task one message", "task two message"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("flushed log missing %q", want)
		}
	}
}

func TestRequestSurveyURL(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, &fakeLLM{}, config.TimingLazy, config.FlushCheckpoint)

	s := e.StartSession(ctx)
	if _, err := e.RequestSurvey(ctx, s); err == nil {
		t.Fatalf("survey granted before completing the study")
	}

	for i := 0; i < 2; i++ {
		if _, err := e.HandlePrompt(ctx, s, "msg"); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if err := e.Advance(ctx, s); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if err := e.SubmitQuiz(ctx, s); err != nil {
		t.Fatalf("submit quiz: %v", err)
	}

	raw, err := e.RequestSurvey(ctx, s)
	if err != nil {
		t.Fatalf("request survey: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse survey url: %v", err)
	}
	q := u.Query()
	if q.Get("App_Variant") != s.Variant() {
		t.Fatalf("variant param %q, want %q", q.Get("App_Variant"), s.Variant())
	}
	if q.Get("User_ID") != s.UserID() {
		t.Fatalf("user param %q, want %q", q.Get("User_ID"), s.UserID())
	}
}
