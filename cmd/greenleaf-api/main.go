package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"greenleaf/internal/auth"
	"greenleaf/internal/config"
	"greenleaf/internal/logging"
	"greenleaf/internal/profile"
	"greenleaf/internal/profile/apiserver"
	"greenleaf/internal/profile/sqlstore"
	"greenleaf/internal/telemetry"
)

// options holds the CLI-only settings of the API server.
type options struct {
	issueToken int64
	seed       bool
	email      string
	firstName  string
	lastName   string
}

func parseFlags(cfg *config.Config) options {
	var opts options

	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address to listen on")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "HS256 secret for bearer tokens (required)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error, off)")
	flag.Int64Var(&cfg.UserID, "user", cfg.UserID, "user ID for -seed")
	flag.Int64Var(&opts.issueToken, "issue-token", 0, "print a token for this user ID and exit")
	flag.BoolVar(&opts.seed, "seed", false, "create a profile for -user if missing (requires -email)")
	flag.StringVar(&opts.email, "email", "", "email of the seeded profile")
	flag.StringVar(&opts.firstName, "first-name", "", "first name of the seeded profile")
	flag.StringVar(&opts.lastName, "last-name", "", "last name of the seeded profile")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: greenleaf-api [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Serves the profile API used by greenleaf, backed by SQLite.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "error: --jwt-secret or GREENLEAF_JWT_SECRET is required")
		flag.Usage()
		os.Exit(1)
	}
	if opts.seed && opts.email == "" {
		fmt.Fprintln(os.Stderr, "error: --seed requires --email")
		os.Exit(1)
	}

	return opts
}

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	opts := parseFlags(&cfg)

	if err := run(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, opts options) error {
	signer, err := auth.NewSigner(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if opts.issueToken > 0 {
		token, expires, err := signer.Issue(opts.issueToken, auth.DefaultTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format(time.RFC3339))
		return nil
	}

	logger, err := logging.NewStderr(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Setup(ctx, "greenleaf-api")
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = tp.Shutdown(shutdownCtx)
	}()

	db, err := sqlstore.Open(ctx, cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	store := sqlstore.NewStore(db, cfg.MediaDir(), sqlstore.WithImageRef(apiserver.MediaRef))

	if opts.seed {
		seed := profile.Snapshot{
			ID:        cfg.UserID,
			Email:     opts.email,
			FirstName: opts.firstName,
			LastName:  opts.lastName,
		}
		if err := store.Create(ctx, seed); err != nil {
			return fmt.Errorf("seed profile: %w", err)
		}
		logger.Info("profile seeded", zap.Int64("user_id", cfg.UserID), zap.String("email", opts.email))
	}

	handler := apiserver.NewHandler(store, signer, profile.Validator{GenderOptions: cfg.GenderOptions}, logger)
	server := apiserver.NewServer(cfg.ListenAddr, handler.Router(), logger)
	errs := server.Start()

	select {
	case err, ok := <-errs:
		if ok && err != nil {
			return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
