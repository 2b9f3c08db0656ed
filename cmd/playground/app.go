package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"slices"
	"strings"

	"github.com/p-n-ai/playground/internal/analytics"
	"github.com/p-n-ai/playground/internal/animation"
	"github.com/p-n-ai/playground/internal/concept"
	"github.com/p-n-ai/playground/internal/platform/cache"
	"github.com/p-n-ai/playground/internal/platform/config"
	"github.com/p-n-ai/playground/internal/platform/database"
	"github.com/p-n-ai/playground/internal/progress"
)

// app holds the collaborators every command shares.
type app struct {
	cfg      *config.Config
	repo     concept.Repository
	files    *concept.FileRepository
	prober   animation.Prober
	events   analytics.EventLogger
	summary  summarizer
	notifier progress.Notifier
	health   []healthCheck
	closers  []func()
}

// healthCheck pings one configured backend.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

type summarizer interface {
	Summary(ctx context.Context, topic string) ([]analytics.TypeCount, error)
}

// loadApp reads the environment and connects the optional backends. logOut
// is where logs go when PLAYGROUND_LOG_FILE is unset.
func loadApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg}

	logger, closeLog, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeLog)
	slog.SetDefault(logger)

	jar, err := cookiejar.New(nil)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	client := &http.Client{Timeout: cfg.Content.HTTPTimeout, Jar: jar}

	if cfg.UsesFileContent() {
		files, err := concept.NewFileRepository(cfg.Content.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.files = files
		a.repo = files
	} else {
		a.repo = concept.NewHTTPRepository(cfg.Content.URL, client)
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("concept cache disabled", "error", err)
		} else {
			a.closers = append(a.closers, func() { _ = c.Close() })
			a.health = append(a.health, healthCheck{name: "cache", check: c.HealthCheck})
			a.repo = concept.NewCachedRepository(a.repo, c, cfg.Cache.TTL)
		}
	}

	if cfg.Content.AnimationsPath != "" {
		a.prober = animation.NewDirProber(cfg.Content.AnimationsPath)
	} else {
		a.prober = animation.NewHTTPProber(cfg.Content.URL, client)
	}

	a.events = analytics.NopEventLogger{}
	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.health = append(a.health, healthCheck{name: "database", check: db.HealthCheck})
		pg := analytics.NewPostgresEventLogger(db.Pool)
		a.events = pg
		a.summary = pg
	}

	a.notifier = progress.NopNotifier{}
	if cfg.Progress.Enabled {
		a.notifier = progress.NewHTTPNotifier(cfg.Content.URL, client)
	}

	return a, nil
}

// Topics lists the topics the content source offers, sorted.
func (a *app) Topics() []string {
	var topics []string
	if a.files != nil {
		topics = a.files.Topics()
	} else {
		topics = concept.KnownTopics()
	}
	slices.Sort(topics)
	return topics
}

// Close releases backends in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLogger(cfg config.LogConfig, fallback io.Writer) (*slog.Logger, func(), error) {
	out := fallback
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler), closeFn, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
