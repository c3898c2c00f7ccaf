// Package main implements the helpcenter CLI, a terminal client for the
// AI help-center backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/chat"
	"github.com/Ajaypalvai07/ai-help-center/internal/config"
	"github.com/Ajaypalvai07/ai-help-center/internal/conversation"
	"github.com/Ajaypalvai07/ai-help-center/internal/guard"
	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
	"github.com/Ajaypalvai07/ai-help-center/internal/media"
	"github.com/Ajaypalvai07/ai-help-center/internal/session"
	"github.com/Ajaypalvai07/ai-help-center/internal/storage"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "helpcenter",
	Short: "Terminal client for the AI help center",
	Long: `helpcenter is a terminal client for the AI help-center backend.
It manages your session, keeps per-category chat transcripts, uploads
voice and image attachments for analysis, and renders the admin
dashboard for operators.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/helpcenter/config.yaml)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// app wires the client stack for one command invocation.
type app struct {
	cfg        *config.Config
	logger     *logging.Logger
	store      storage.Store
	client     *api.Client
	sessions   *session.Store
	transcript *conversation.Store
	runner     *chat.Runner
	media      *media.Client
	watcher    *guard.Watcher
}

// newApp loads config and builds the full dependency graph. Close must be
// called when the command finishes.
func newApp() (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	statePath := cfg.Storage.Path
	if statePath == "" {
		statePath, err = config.DefaultStatePath()
		if err != nil {
			return nil, fmt.Errorf("resolve state path: %w", err)
		}
	}

	store, err := storage.NewSQLite(statePath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, store: store}

	// The session store is the token source for the API client, and the
	// client is the auth backend for the session store. Break the cycle by
	// constructing the client first with a late-bound token source.
	tokens := &sessionTokens{}
	a.client, err = api.NewClient(cfg.API.BaseURL, tokens,
		api.WithLogger(logger.Named("api")),
		api.WithTimeout(cfg.API.RequestTimeout.Duration()),
		api.WithRateLimit(cfg.API.RateLimit),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	a.sessions, err = session.NewStore(a.client, store, cfg.Session.IdleTimeout.Duration(), logger.Named("session"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}
	tokens.sessions = a.sessions

	a.transcript, err = conversation.NewStore(store, cfg.Chat.MaxMessages, cfg.Chat.MaxAge.Duration(), logger.Named("conversation"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init conversation store: %w", err)
	}

	a.runner, err = chat.NewRunner(a.client, a.transcript, a.sessions, logger.Named("chat"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init chat runner: %w", err)
	}

	a.media, err = media.New(a.client, cfg.Media.PollAttempts, cfg.Media.PollDelay.Duration(), logger.Named("media"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init media client: %w", err)
	}

	a.watcher, err = guard.NewWatcher(a.sessions, cfg.Session.CheckInterval.Duration(), logger.Named("guard"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init session watcher: %w", err)
	}

	// Drop transcripts that aged out since the last run, and enforce the
	// idle timeout that accrued while the client was closed.
	a.transcript.SweepExpired()
	a.watcher.Check(context.Background())

	return a, nil
}

func (a *app) Close() {
	a.watcher.Stop()
	if err := a.store.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing state store failed")
	}
	_ = a.logger.Sync()
}

// requireAuth verifies the stored session against the backend and returns
// the signed-in session, failing with a login hint otherwise.
func (a *app) requireAuth(ctx context.Context) (session.Session, error) {
	s, err := a.sessions.Verify(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("not signed in (run `helpcenter login`): %w", err)
	}
	return s, nil
}

// sessionTokens adapts the session store into an api.TokenSource after
// both sides of the client/session cycle exist.
type sessionTokens struct {
	sessions *session.Store
}

func (t *sessionTokens) Token() config.Secret {
	if t.sessions == nil {
		return ""
	}
	return t.sessions.Token()
}
