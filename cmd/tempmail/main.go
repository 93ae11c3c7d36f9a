package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/nhle/tempmail/internal/app"
	"github.com/nhle/tempmail/internal/credential"
	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/session"
	"github.com/nhle/tempmail/internal/store"
	appsync "github.com/nhle/tempmail/internal/sync"
)

var (
	version     = "dev"
	showVersion = flag.Bool("version", false, "Show version information")
	configPath  = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("tempmail version %s\n", version)
		os.Exit(0)
	}

	// Optional .env for overrides like TEMPMAIL_BASE_URL in dev setups.
	_ = godotenv.Load()

	path := *configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}

	cfg, err := model.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if baseURL := os.Getenv("TEMPMAIL_BASE_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	logger, logFile := setupLogger(cfg.Log)
	if logFile != nil {
		defer logFile.Close()
	}

	logger.WithField("version", version).Info("Starting tempmail")

	archive, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open message archive")
	}
	defer archive.Close()

	snapshots := credential.NewStore(cfg.Storage.InsecureFileStore)
	client := mailtm.NewClient(cfg.API.BaseURL)

	manager := session.NewManager(session.Config{
		API:       client,
		Snapshots: snapshots,
		Archive:   archive,
		Logger:    logger,
		PageSize:  cfg.API.PageSize,
	})

	poller := appsync.New(manager, time.Duration(cfg.PollIntervalSec)*time.Second)
	defer poller.Stop()

	program := tea.NewProgram(
		app.New(manager, poller, logger),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		logger.WithError(err).Fatal("Application error")
	}
}

// setupLogger configures a JSON file logger. The TUI owns the
// terminal, so stdout logging would corrupt the display.
func setupLogger(cfg model.LogConfig) (*logrus.Logger, *os.File) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		logger.SetOutput(os.Stderr)
		return logger, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logger.SetOutput(os.Stderr)
		return logger, nil
	}

	logger.SetOutput(f)
	return logger, f
}
