package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/BTreeMap/PitchIQ/internal/api"
	"github.com/BTreeMap/PitchIQ/internal/conversation"
	"github.com/BTreeMap/PitchIQ/internal/fear"
	"github.com/BTreeMap/PitchIQ/internal/genai"
	"github.com/BTreeMap/PitchIQ/internal/history"
	"github.com/BTreeMap/PitchIQ/internal/lexicon"
	"github.com/BTreeMap/PitchIQ/internal/lockfile"
	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/persona"
	"github.com/BTreeMap/PitchIQ/internal/sam"
	"github.com/BTreeMap/PitchIQ/internal/scheduler"
	"github.com/BTreeMap/PitchIQ/internal/store"
	"github.com/BTreeMap/PitchIQ/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for PitchIQ state data
	DefaultStateDir = "/var/lib/pitchiq"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "pitchiq.db"
	// MemoryDSN selects the in-memory store
	MemoryDSN = "memory"
	// DefaultIdleTimeout is how long a conversation stays in memory without requests
	DefaultIdleTimeout = 30 * time.Minute
	// SweepSchedule controls how often idle conversations are evicted
	SweepSchedule = "@every 5m"
	// BiasAuditSchedule controls how often persona diversity is audited
	BiasAuditSchedule = "@hourly"
)

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.LogLevel)

	flags := parseCommandLineFlags(config, os.Args[1:])
	if *flags.logLevel != config.LogLevel {
		initializeLogger(*flags.logLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping PitchIQ", "state_dir", *flags.stateDir, "dsn_type", dsnType(*flags.dbDSN), "api_addr", *flags.apiAddr)
	if err := run(ctx, flags); err != nil {
		slog.Error("PitchIQ failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("PitchIQ exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	APIAddr     string
	LexiconFile string
	LogLevel    string
	LLMAnalysis bool
	HistoryWarm int
	IdleTimeout time.Duration
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	openaiKey   *string
	openaiModel *string
	apiAddr     *string
	lexiconFile *string
	logLevel    *string
	llmAnalysis *bool
	historyWarm *int
	idleTimeout *time.Duration
}

// initializeLogger sets up the process-wide text logger. Unknown levels fall
// back to debug.
func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("PITCHIQ_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		APIAddr:     os.Getenv("API_ADDR"),
		LexiconFile: os.Getenv("LEXICON_FILE"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LLMAnalysis: util.ParseBoolEnv("PITCHIQ_LLM_ANALYSIS", true),
		HistoryWarm: util.ParseIntEnv("PITCHIQ_HISTORY_WARM", history.DefaultLogCapacity),
		IdleTimeout: util.ParseDurationEnv("PITCHIQ_IDLE_TIMEOUT", DefaultIdleTimeout),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No PITCHIQ_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", os.Getenv("DATABASE_URL") != "",
		"PITCHIQ_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"LEXICON_FILE", config.LexiconFile,
		"PITCHIQ_LLM_ANALYSIS", config.LLMAnalysis,
		"PITCHIQ_HISTORY_WARM", config.HistoryWarm,
		"PITCHIQ_IDLE_TIMEOUT", config.IdleTimeout)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config, args []string) Flags {
	fs := flag.NewFlagSet("pitchiq", flag.ExitOnError)
	flags := Flags{
		stateDir:    fs.String("state-dir", config.StateDir, "state directory for PitchIQ data (overrides $PITCHIQ_STATE_DIR)"),
		dbDSN:       fs.String("db-dsn", config.DatabaseURL, "SQLite path, postgres:// or redis:// URL, or \"memory\" (overrides $DATABASE_URL)"),
		openaiKey:   fs.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel: fs.String("openai-model", config.OpenAIModel, "OpenAI model (overrides $OPENAI_MODEL)"),
		apiAddr:     fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		lexiconFile: fs.String("lexicon", config.LexiconFile, "YAML lexicon override file (overrides $LEXICON_FILE)"),
		logLevel:    fs.String("log-level", config.LogLevel, "debug, info, warn or error (overrides $LOG_LEVEL)"),
		llmAnalysis: fs.Bool("llm-analysis", config.LLMAnalysis, "use the LLM for conversation state analysis (overrides $PITCHIQ_LLM_ANALYSIS)"),
		historyWarm: fs.Int("history-warm", config.HistoryWarm, "persisted persona generations to replay at startup, 0 disables (overrides $PITCHIQ_HISTORY_WARM)"),
		idleTimeout: fs.Duration("idle-timeout", config.IdleTimeout, "evict conversations idle this long from memory, 0 disables (overrides $PITCHIQ_IDLE_TIMEOUT)"),
	}
	fs.Parse(args)

	// Follow -state-dir when the DSN is still the default SQLite path
	defaultDSN := filepath.Join(config.StateDir, DefaultDBFileName)
	if *flags.dbDSN == defaultDSN && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"lexicon", *flags.lexiconFile,
		"llmAnalysis", *flags.llmAnalysis,
		"historyWarm", *flags.historyWarm,
		"idleTimeout", *flags.idleTimeout)
	return flags
}

// run wires the engine together and serves the API until ctx is cancelled.
func run(ctx context.Context, flags Flags) error {
	lock, err := lockfile.Acquire(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	st, err := openStore(ctx, *flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	lex, err := loadLexicon(*flags.lexiconFile)
	if err != nil {
		return err
	}

	completer := buildCompleter(flags)

	tracker := history.NewMemoryTracker(history.DefaultCategoryCapacity)
	fears := fear.NewGenerator(fear.WithTracker(tracker))
	personas := persona.NewGenerator(buildPersonaOptions(tracker, fears, st, completer)...)
	if err := warmHistory(ctx, st, personas, *flags.historyWarm); err != nil {
		slog.Warn("run: history warm start failed, starting cold", "error", err)
	}

	managerOpts := []conversation.Option{conversation.WithLexicon(lex)}
	if completer != nil && *flags.llmAnalysis {
		managerOpts = append(managerOpts, conversation.WithCompleter(completer))
	}
	registry := conversation.NewRegistry(conversation.WithStore(st), conversation.WithManagerOptions(managerOpts...))

	sched := scheduler.NewScheduler(ctx)
	for _, job := range maintenanceJobs(registry, personas, *flags.idleTimeout) {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("schedule maintenance: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	server := api.NewServer(registry, personas, fears, sam.NewService(), buildAPIOptions(flags)...)
	return server.Run(ctx)
}

// openStore selects the backend from the DSN.
func openStore(ctx context.Context, dsn string) (store.Store, error) {
	switch dsnType(dsn) {
	case MemoryDSN:
		slog.Debug("Using in-memory store")
		return store.NewInMemoryStore(), nil
	case "postgres":
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	case "redis":
		slog.Debug("Detected Redis URL, configuring Redis store")
		return store.NewRedisStore(ctx, store.WithRedisURL(dsn))
	default:
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
		return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
	}
}

func dsnType(dsn string) string {
	if dsn == "" || dsn == MemoryDSN {
		return MemoryDSN
	}
	return store.DetectDSNType(dsn)
}

// loadLexicon returns the built-in lexicon, overlaid with path when set.
func loadLexicon(path string) (*lexicon.Compiled, error) {
	lex := lexicon.Default()
	if path != "" {
		var err error
		if lex, err = lexicon.Load(path); err != nil {
			return nil, err
		}
	}
	compiled, err := lex.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile lexicon: %w", err)
	}
	return compiled, nil
}

// buildCompleter returns nil when no API key is available, which keeps
// every LLM-backed path on its heuristic fallback.
func buildCompleter(flags Flags) genai.Completer {
	client, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		if errors.Is(err, genai.ErrAPIKeyMissing) {
			slog.Info("No OpenAI API key configured, LLM analysis disabled")
		} else {
			slog.Warn("GenAI client unavailable, LLM analysis disabled", "error", err)
		}
		return nil
	}
	return client
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildPersonaOptions constructs persona generator options
func buildPersonaOptions(tracker history.Tracker, fears persona.FearSource, rec persona.GenerationRecorder, completer genai.Completer) []persona.Option {
	opts := []persona.Option{
		persona.WithTracker(tracker),
		persona.WithFearSource(fears),
		persona.WithRecorder(rec),
	}
	if completer != nil {
		opts = append(opts, persona.WithCompleter(completer))
	}
	return opts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// warmHistory replays the last n persisted generations so anti-repetition
// windows survive a restart.
func warmHistory(ctx context.Context, st store.Store, personas *persona.Generator, n int) error {
	if n <= 0 {
		return nil
	}
	records, err := st.ListGenerations(ctx, n)
	if err != nil {
		return fmt.Errorf("list generations: %w", err)
	}
	personas.Warm(records)
	slog.Info("warmHistory: generation history restored", "records", len(records))
	return nil
}

type sweeper interface {
	Sweep(idle time.Duration) int
}

type biasReporter interface {
	BiasReport(window int) models.BiasReport
}

// maintenanceJobs returns the periodic jobs run alongside the API. The
// idle sweep is omitted when idle is zero.
func maintenanceJobs(conversations sweeper, personas biasReporter, idle time.Duration) []scheduler.Job {
	jobs := []scheduler.Job{{
		Name: "bias-audit",
		Spec: BiasAuditSchedule,
		Run:  func(context.Context) { auditBias(personas) },
	}}
	if idle > 0 {
		jobs = append(jobs, scheduler.Job{
			Name: "conversation-sweep",
			Spec: SweepSchedule,
			Run:  func(context.Context) { conversations.Sweep(idle) },
		})
	}
	return jobs
}

// auditBias logs every skewed field of the recent generation window.
func auditBias(personas biasReporter) {
	report := personas.BiasReport(0)
	if !report.IsBiased {
		slog.Debug("auditBias: no skew detected", "sample_size", report.SampleSize)
		return
	}
	for _, fb := range report.Fields {
		if fb.IsBiased {
			slog.Warn("auditBias: persona field skewed", "field", fb.Field, "value", fb.DominantValue, "share", fb.DominantShare, "threshold", fb.Threshold, "sample_size", report.SampleSize)
		}
	}
}
