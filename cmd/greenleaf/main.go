package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"greenleaf/internal/config"
	"greenleaf/internal/logging"
	"greenleaf/internal/profile"
	"greenleaf/internal/profile/apiclient"
	"greenleaf/internal/profile/sqlstore"
	"greenleaf/internal/telemetry"
	"greenleaf/internal/ui"
	"greenleaf/internal/viewmodel"
)

func parseFlags(cfg *config.Config) (email string) {
	flag.StringVar(&cfg.APIURL, "api", cfg.APIURL, "profile API base URL (empty: offline mode)")
	flag.StringVar(&cfg.Token, "token", cfg.Token, "bearer token for the profile API")
	flag.Int64Var(&cfg.UserID, "user", cfg.UserID, "profile ID used in offline mode")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error, off)")
	flag.StringVar(&email, "email", "", "email for the offline profile when none exists yet")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: greenleaf [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Greenleaf shows and edits your user profile in the terminal.\n")
		fmt.Fprintf(os.Stderr, "Without -api it works offline against %s.\n\n", cfg.DBPath())
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return email
}

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	email := parseFlags(&cfg)

	if err := run(cfg, email); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, email string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logging.NewFile(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tp, err := telemetry.Setup(ctx, "greenleaf")
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = tp.Shutdown(shutdownCtx)
	}()

	repo, closeRepo, err := openRepository(ctx, cfg, email, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	validator := profile.Validator{GenderOptions: cfg.GenderOptions}
	newEditor := func() ui.ProfileEditor {
		return viewmodel.NewEditProfile(repo,
			viewmodel.WithLogger(logger),
			viewmodel.WithValidator(validator),
		)
	}

	app := ui.NewAppModel(ctx, ui.NewProfileView(ctx, repo), newEditor,
		ui.WithGenderOptions(cfg.GenderOptions),
		ui.WithLogger(logger),
	)
	defer app.Close()

	logger.Info("starting", zap.Bool("offline", cfg.Offline()), zap.Int64("user_id", cfg.UserID))
	p := tea.NewProgram(app.AsTeaModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// openRepository returns the API client, or the local store when no API URL is configured.
func openRepository(ctx context.Context, cfg config.Config, email string, logger *zap.Logger) (profile.Repository, func(), error) {
	if !cfg.Offline() {
		client := apiclient.New(cfg.APIURL,
			apiclient.WithToken(cfg.Token),
			apiclient.WithTimeout(cfg.HTTPTimeout),
			apiclient.WithLogger(logger),
		)
		return client, func() {}, nil
	}

	db, err := sqlstore.Open(ctx, cfg.DBPath())
	if err != nil {
		return nil, nil, err
	}
	store := sqlstore.NewStore(db, cfg.MediaDir())

	if _, err := store.Get(ctx, cfg.UserID); errors.Is(err, profile.ErrNotFound) {
		if email == "" {
			_ = db.Close()
			return nil, nil, fmt.Errorf("no profile for user %d: run once with -email to create it", cfg.UserID)
		}
		if err := store.Create(ctx, profile.Snapshot{ID: cfg.UserID, Email: email}); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("create profile: %w", err)
		}
		logger.Info("created offline profile", zap.Int64("user_id", cfg.UserID))
	} else if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return store.ForUser(cfg.UserID), func() { _ = db.Close() }, nil
}
