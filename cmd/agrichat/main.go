package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cropgen/agrichat/internal/api"
	"github.com/cropgen/agrichat/internal/flow"
	"github.com/cropgen/agrichat/internal/genai"
	"github.com/cropgen/agrichat/internal/responder"
	"github.com/cropgen/agrichat/internal/store"
	"github.com/cropgen/agrichat/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for AgriChat state data
	DefaultStateDir = "/var/lib/agrichat"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "agrichat.db"
)

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	flags := parseCommandLineFlags(config)

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	genaiOpts := []genai.Option{}
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Error("Failed to initialize GenAI client", "error", err)
		os.Exit(1)
	}

	engine := flow.NewEngine(st, responder.NewGenAIFactory(client))
	server := api.NewServer(st, engine)

	slog.Info("Bootstrapping AgriChat", "driver", *flags.dbDriver, "api_addr", *flags.apiAddr)
	if err := server.Run(*flags.apiAddr); err != nil {
		slog.Error("AgriChat failed to run", "error", err)
		os.Exit(1)
	}
}

// Config holds environment configuration
type Config struct {
	DbDriver    string
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	APIAddr     string
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDriver    *string
	dbDSN       *string
	openaiKey   *string
	openaiModel *string
	apiAddr     *string
}

// initializeLogger sets up structured logging
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		DbDriver:    os.Getenv("DB_DRIVER"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("AGRICHAT_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		APIAddr:     os.Getenv("API_ADDR"),
		Debug:       util.ParseBoolEnv("AGRICHAT_DEBUG", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}

	// A DATABASE_URL implies Postgres unless a driver says otherwise.
	if config.DbDriver == "" && config.DatabaseURL != "" {
		config.DbDriver = "postgres"
	}
	if config.DbDriver == "" {
		config.DbDriver = "sqlite3"
	}

	slog.Debug("environment variables loaded",
		"DB_DRIVER", config.DbDriver,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"AGRICHAT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for AgriChat data (overrides $AGRICHAT_STATE_DIR)"),
		dbDriver:    flag.String("db-driver", config.DbDriver, "database driver: sqlite3 or postgres (overrides $DB_DRIVER)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN: file path for sqlite3, URL for postgres (overrides $DATABASE_URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel: flag.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}
	flag.Parse()
	return flags
}

// buildStore selects and initializes the persistence backend. An unset
// DSN falls back to a SQLite file under the state directory.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	switch *flags.dbDriver {
	case "postgres":
		return store.NewPostgresStore(store.WithDSN(dsn))
	default:
		if dsn == "" {
			dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		return store.NewSQLiteStore(store.WithDSN(dsn))
	}
}
