package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/postboard/internal/config"
	"github.com/five82/postboard/internal/effects"
	"github.com/five82/postboard/internal/postapi"
	"github.com/five82/postboard/internal/prefs"
	"github.com/five82/postboard/internal/state"
	"github.com/five82/postboard/internal/ui"
)

// Options configure the postboard client.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/postboard/prefs.toml
	RefreshSec int    // seconds; zero uses the config value
}

// Run boots the postboard TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := postapi.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init post api client: %w", err)
	}

	store := state.New()
	orch := effects.New(store, client,
		effects.WithLogger(logger),
		effects.WithRequestTimeout(cfg.RequestTimeout),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- orch.Run(runCtx) }()

	interval := cfg.RefreshInterval
	if opts.RefreshSec > 0 {
		interval = time.Duration(opts.RefreshSec) * time.Second
	}
	StartPoller(runCtx, orch, interval)

	logger.Info("postboard starting", "api_url", cfg.APIURL, "refresh", interval)
	orch.Fetch()

	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Actions:   orch,
		Prefs:     prefs.Load(opts.PrefsPath),
		PrefsPath: opts.PrefsPath,
		LogPath:   cfg.LogFile,
		Logger:    logger,
	})

	cancel()
	<-done
	logger.Info("postboard stopped")

	if errors.Is(uiErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return uiErr
}

// openLogger points a slog text handler at path. The terminal belongs to the
// UI, so nothing is logged to stdout or stderr.
func openLogger(path string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, func() { _ = file.Close() }, nil
}
