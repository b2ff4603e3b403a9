package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexjbarnes/clip-sync/internal/alist"
	"github.com/alexjbarnes/clip-sync/internal/clipboard"
	"github.com/alexjbarnes/clip-sync/internal/config"
	"github.com/alexjbarnes/clip-sync/internal/logging"
	"github.com/alexjbarnes/clip-sync/internal/state"
	"github.com/alexjbarnes/clip-sync/internal/syncer"
)

var Version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command>

Commands:
  push     upload the local clipboard to the remote slot
  pull     restore the newest remote snapshot into the local clipboard
  version  print the version and exit
`, os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	// Handle version before config loading.
	if cmd == "version" {
		fmt.Println(Version)
		return
	}

	if cmd != "push" && cmd != "pull" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err := run(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)
	logger.Info("clip-sync starting",
		slog.String("version", Version),
		slog.String("command", cmd),
		slog.String("server", cfg.ServerURL),
		slog.String("dir", cfg.ClipboardDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A broken token cache is not fatal; every run can log in fresh.
	appState, err := state.Load()
	if err != nil {
		logger.Warn("token cache unavailable", slog.String("error", err.Error()))
		appState = nil
	} else {
		defer appState.Close()
	}

	client := alist.NewClient(cfg.ServerURL, nil)

	session, usedCachedToken := newSession(client, cfg, appState, logger)

	sys := clipboard.NewSystem()

	// Read the clipboard once; a login retry must not capture a
	// different payload than the first attempt.
	var payload clipboard.Payload

	if cmd == "push" {
		payload, err = sys.Read(ctx)
		if err != nil {
			if errors.Is(err, clipboard.ErrEmpty) {
				return fmt.Errorf("clipboard is empty, nothing to push")
			}

			return fmt.Errorf("reading clipboard: %w", err)
		}
	}

	runOp := func(auth syncer.TokenSource) error {
		engine := syncer.New(syncer.Config{
			Store:      client,
			Auth:       auth,
			Dir:        cfg.ClipboardDir,
			TimeFormat: cfg.TimeFormat,
			Writer:     sys,
			Logger:     logger,
		})

		if cmd == "push" {
			return push(ctx, engine, payload, logger)
		}

		return pull(ctx, engine, logger)
	}

	freshLogin := func() syncer.TokenSource {
		if appState != nil {
			if clearErr := appState.ClearToken(); clearErr != nil {
				logger.Warn("failed to clear cached token", slog.String("error", clearErr.Error()))
			}
		}

		fresh := alist.NewSession(client, cfg.Username, cfg.Password, "")
		if appState != nil {
			fresh.OnLogin(cacheToken(appState, logger))
		}

		return fresh
	}

	return runWithAuthFallback(runOp, session, usedCachedToken, freshLogin, logger)
}

// runWithAuthFallback runs op with auth. When a cached token turns out
// to be rejected, the cache is stale, not the credentials, so the
// operation is retried once with a fresh credential login. Pre-issued
// tokens and fresh logins never trigger a retry.
func runWithAuthFallback(op func(syncer.TokenSource) error, auth syncer.TokenSource, usedCachedToken bool, freshAuth func() syncer.TokenSource, logger *slog.Logger) error {
	err := op(auth)
	if !recoverableAuth(err, usedCachedToken) {
		return err
	}

	logger.Info("cached token rejected, signing in fresh")

	return op(freshAuth())
}

// recoverableAuth reports whether err is an auth failure that a fresh
// credential login can recover from.
func recoverableAuth(err error, usedCachedToken bool) bool {
	if !usedCachedToken {
		return false
	}

	var syncErr *syncer.SyncError

	return errors.As(err, &syncErr) && syncErr.Kind == syncer.KindAuth
}

// newSession builds the token source for this run. A pre-issued
// ALIST_TOKEN wins over the cache; a freshly obtained token is saved
// back to the cache for later runs. Reports whether the session was
// seeded from the cache.
func newSession(client *alist.Client, cfg *config.Config, appState *state.State, logger *slog.Logger) (*alist.Session, bool) {
	token := cfg.Token
	usedCache := false

	if token == "" && appState != nil {
		if cached := appState.Token(); cached != "" {
			logger.Debug("using cached token")

			token = cached
			usedCache = true
		}
	}

	session := alist.NewSession(client, cfg.Username, cfg.Password, token)

	if appState != nil {
		session.OnLogin(cacheToken(appState, logger))
	}

	return session, usedCache
}

// cacheToken saves freshly obtained tokens for later runs.
func cacheToken(appState *state.State, logger *slog.Logger) func(token string) {
	return func(token string) {
		if err := appState.SetToken(token); err != nil {
			logger.Warn("failed to cache token", slog.String("error", err.Error()))
			return
		}

		logger.Debug("token cached")
	}
}

func push(ctx context.Context, engine *syncer.Engine, payload clipboard.Payload, logger *slog.Logger) error {
	remotePath, err := engine.Push(ctx, payload)
	if err != nil {
		return err
	}

	logger.Info("clipboard pushed", slog.String("path", remotePath))

	return nil
}

func pull(ctx context.Context, engine *syncer.Engine, logger *slog.Logger) error {
	payload, err := engine.Pull(ctx)
	if err != nil {
		var syncErr *syncer.SyncError
		if errors.As(err, &syncErr) && syncErr.Kind == syncer.KindNoContent {
			return fmt.Errorf("remote clipboard slot is empty, nothing to pull")
		}

		return err
	}

	logger.Info("clipboard restored",
		slog.String("kind", payload.Kind.String()),
		slog.Int("bytes", len(payload.Data)),
	)

	return nil
}
