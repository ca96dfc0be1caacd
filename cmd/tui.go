package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nixflix/internal/shared"
	"github.com/desertthunder/nixflix/internal/tasks"
	"github.com/desertthunder/nixflix/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultWatchInterval = 300 // seconds

// Watch runs the poller behind the interactive terminal UI until the user quits.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/nixflix-watch.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if r.config.Sync.PollInterval <= 0 {
		r.config.Sync.PollInterval = defaultWatchInterval
	}

	poller, status, err := r.newPoller(ctx, cmd.Bool("force"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	resultCh := make(chan *tasks.SyncResult, 4)
	poller.Progress = progressCh
	poller.OnResult = func(result *tasks.SyncResult) {
		status.Observe(result)
		select {
		case resultCh <- result:
		default:
		}
	}

	pollErr := make(chan error, 1)
	go func() { pollErr <- poller.Run(ctx) }()

	model := ui.NewModel(ctx, ui.Options{
		Playlist: r.config.Sync.Playlist,
		Album:    r.config.Sync.Album,
		Interval: poller.Interval,
		Trigger:  poller,
		Progress: progressCh,
		Results:  resultCh,
	})

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	cancel()
	return <-pollErr
}
