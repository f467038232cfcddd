package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/app"
	"github.com/abhisek/cognigen/internal/auth"
	"github.com/abhisek/cognigen/internal/config"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/logger"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/store"
)

// env holds what every command needs: configuration, logger and store.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
	e.log.Sync()
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &env{cfg: cfg, log: log, store: st}, nil
}

func (e *env) client() (*api.Client, error) {
	return api.NewClient(api.Config{
		BaseURL:          e.cfg.APIURL,
		Timeout:          e.cfg.RequestTimeout,
		GenerateTimeout:  e.cfg.GenerateTimeout,
		MinServerVersion: e.cfg.MinServerVersion,
	}, e.log)
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	journal := e.store.JournalRepo()
	if e.cfg.JournalKeep > 0 {
		if err := journal.Prune(ctx, e.cfg.JournalKeep); err != nil {
			e.log.Warn("prune journal", "error", err)
		}
	}

	client, err := e.client()
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	deps := &screen.Deps{
		Remote: client,
		Auth:   auth.NewSession(client, client, e.log),
		Controller: engine.NewController(client,
			engine.WithLogger(e.log),
			engine.WithJournal(app.NewJournal(journal)),
		),
		Tracker:         engine.NewTracker(client),
		Cache:           e.store.PathCacheRepo(),
		Log:             e.log,
		RequestTimeout:  e.cfg.RequestTimeout,
		GenerateTimeout: e.cfg.GenerateTimeout,
		PollInterval:    e.cfg.PollInterval,
	}

	e.log.Info("starting", "version", version, "api", e.cfg.APIURL, "db", e.cfg.DBPath)
	return app.Run(deps)
}
