package main

import (
	"context"
	"log"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/mkosmas1/LLM-Alignment/internal/assignment"
	"github.com/mkosmas1/LLM-Alignment/internal/blobstore"
	"github.com/mkosmas1/LLM-Alignment/internal/chatlog"
	"github.com/mkosmas1/LLM-Alignment/internal/config"
	"github.com/mkosmas1/LLM-Alignment/internal/llm"
	"github.com/mkosmas1/LLM-Alignment/internal/scheduler"
	"github.com/mkosmas1/LLM-Alignment/internal/session"
	"github.com/mkosmas1/LLM-Alignment/internal/study"
	"github.com/mkosmas1/LLM-Alignment/internal/tasks"
	"github.com/mkosmas1/LLM-Alignment/internal/web"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	llmClient, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	store := newBlobStore(ctx, cfg)

	ledger, err := assignment.NewLedger(store, filepath.Join(cfg.DataDir, cfg.AssignmentsFileName), cfg.VariantTags)
	if err != nil {
		log.Fatalf("failed to init assignment ledger: %v", err)
	}

	pipeline, err := chatlog.NewPipeline(store, filepath.Join(cfg.DataDir, cfg.ChatLogFileName))
	if err != nil {
		log.Fatalf("failed to init chat log pipeline: %v", err)
	}

	taskList, err := tasks.Load(cfg.TasksFilePath)
	if err != nil {
		log.Fatalf("failed to load tasks: %v", err)
	}
	log.Printf("loaded %d tasks, variants: %v, assignment timing: %s, flush mode: %s",
		len(taskList), cfg.VariantTags, cfg.AssignmentTiming, cfg.FlushMode)

	variantPrompts := study.LoadVariantPrompts(cfg.PromptsDir, cfg.VariantTags)

	engine := study.NewEngine(
		llmClient,
		ledger,
		pipeline,
		session.NewManager(len(taskList)),
		taskList,
		variantPrompts,
		cfg.SurveyBaseURL,
		cfg.AssignmentTiming,
		cfg.FlushMode,
	)

	if cfg.AutoSyncSpec != "" {
		sched := scheduler.New(cfg.AutoSyncSpec)
		sched.SetSyncFunction(pipeline.Sync)
		if err := sched.Start(); err != nil {
			log.Printf("failed to start autosync scheduler: %v", err)
		} else {
			defer sched.Stop()
		}
	}

	srv := web.NewServer(engine, "./static", cfg.ListenPort)
	log.Printf("study app listening on :%d", cfg.ListenPort)
	if err := srv.Start(); err != nil {
		log.Fatalf("web server stopped: %v", err)
	}
}

// newBlobStore builds the Drive-backed store, or an in-memory one when
// no credentials are configured (local runs; durability reduced to the
// local CSV copies).
func newBlobStore(ctx context.Context, cfg *config.Config) blobstore.Store {
	if cfg.GDriveCredentialsJSON == "" {
		log.Printf("GDRIVE_CREDENTIALS_JSON not set, using in-memory blob store")
		return blobstore.NewMemoryStore()
	}
	store, err := blobstore.NewDriveStore(ctx, []byte(cfg.GDriveCredentialsJSON), cfg.GDriveFolderID)
	if err != nil {
		log.Fatalf("failed to init drive store: %v", err)
	}
	return store
}
