package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// AssignmentTiming controls when a participant receives a variant:
// on the first submitted prompt (lazy) or at session creation (eager).
type AssignmentTiming string

const (
	TimingLazy  AssignmentTiming = "lazy"
	TimingEager AssignmentTiming = "eager"
)

// FlushMode controls when accumulated turns are persisted remotely:
// after every completed turn, or batched at the quiz-submission checkpoint.
type FlushMode string

const (
	FlushPerTurn    FlushMode = "turn"
	FlushCheckpoint FlushMode = "checkpoint"
)

type Config struct {
	ListenPort int `env:"LISTEN_PORT" envDefault:"8080"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4.1-nano-2025-04-14"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Experiment arms. Each variant may have a system prompt file named
	// <variant>.txt in PromptsDir; variants without one run uninstructed.
	VariantTags []string `env:"VARIANT_TAGS" envSeparator:":" envDefault:"aligned-feedback:aligned-no-feedback:vanilla"`
	PromptsDir  string   `env:"PROMPTS_DIR" envDefault:"prompts"`

	AssignmentTiming AssignmentTiming `env:"ASSIGNMENT_TIMING" envDefault:"lazy"`
	FlushMode        FlushMode        `env:"FLUSH_MODE" envDefault:"checkpoint"`

	// Google Drive persistence
	GDriveCredentialsJSON string `env:"GDRIVE_CREDENTIALS_JSON"`
	GDriveFolderID        string `env:"GDRIVE_FOLDER_ID"`

	// Storage
	DataDir             string `env:"DATA_DIR" envDefault:"data"`
	AssignmentsFileName string `env:"ASSIGNMENTS_FILE" envDefault:"variant_assignments.csv"`
	ChatLogFileName     string `env:"CHAT_LOG_FILE" envDefault:"chat_logs.csv"`

	// Tasks shown to participants; falls back to compiled-in defaults
	// when the file is absent.
	TasksFilePath string `env:"TASKS_FILE_PATH" envDefault:"tasks.yaml"`

	SurveyBaseURL string `env:"SURVEY_BASE_URL"`

	// Cron spec for periodic remote re-sync of the chat log; empty disables it.
	AutoSyncSpec string `env:"AUTOSYNC_CRON"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
