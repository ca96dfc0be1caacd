package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/server"
	"github.com/desertthunder/nixflix/internal/services"
	"github.com/desertthunder/nixflix/internal/shared"
	"github.com/desertthunder/nixflix/internal/tasks"
	"github.com/desertthunder/nixflix/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Sync replaces the playlist with the album when the album is newer, once or on every poll interval.
//
// With a poll interval and a listen address the health server runs beside the poller; the first of the two to
// fail stops the other.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	poller, status, err := r.newPoller(ctx, cmd.Bool("force"))
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(progressCh)
	}()
	poller.Progress = progressCh

	defer func() {
		close(progressCh)
		<-done
	}()

	addr := r.config.Server.Addr()
	if poller.Interval <= 0 || addr == "" {
		if addr != "" {
			r.logger.Warn("--listen is ignored without --poll")
		}
		return poller.Run(ctx)
	}

	var runs server.RunLister
	if r.journal != nil {
		runs = r.journal
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})
	g.Go(func() error {
		router := server.NewHealthRouter(status, runs, r.logger)
		return server.ListenAndServe(gctx, addr, router, r.logger)
	})
	return g.Wait()
}

// newPoller wires the engine, the journal and the health status for the configured pair.
func (r *Runner) newPoller(ctx context.Context, force bool) (*tasks.Poller, *server.Status, error) {
	playlist, album := r.config.Sync.Playlist, r.config.Sync.Album
	if playlist == "" {
		return nil, nil, fmt.Errorf("%w: --nixplay-list", shared.ErrMissingArgument)
	}
	if album == "" {
		return nil, nil, fmt.Errorf("%w: --flickr-album", shared.ErrMissingArgument)
	}

	src, err := r.sourceService()
	if err != nil {
		return nil, nil, err
	}
	dest, err := r.destinationService(ctx)
	if err != nil {
		return nil, nil, err
	}

	engine := tasks.NewSyncEngine(dest, src, r.config.Sync.BatchSize, r.logger)
	journal, err := r.runJournal()
	if err != nil {
		r.logger.Warn("run journal unavailable, attempts will not be recorded", "err", err)
	} else if journal != nil {
		engine.WithRecorder(journal)
	}

	status := &server.Status{}
	poller := tasks.NewPoller(engine, playlist, album, r.config.Sync.PollEvery(), r.logger)
	poller.Force = force
	poller.OnResult = func(result *tasks.SyncResult) {
		status.Observe(result)
		r.writePlain("%s\n", ui.Summary(result))
	}

	return poller, status, nil
}

// printProgress writes the engine's progress updates until the channel is closed.
func (r *Runner) printProgress(progressCh <-chan tasks.ProgressUpdate) {
	for update := range progressCh {
		switch update.Phase {
		case tasks.FetchDest, tasks.FetchSource:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.Compare:
			r.writePlain("🔍 %s\n", update.Message)
		case tasks.ClearItems, tasks.RemovePlaceholder:
			r.writePlain("🗑  %s\n", update.Message)
		case tasks.InsertItems:
			r.writePlain("📤 %s\n", update.Message)
		}
	}
}

// Start restarts the configured playlist on the configured frame, if the frame carries it.
func (r *Runner) Start(ctx context.Context, cmd *cli.Command) error {
	frameName, playlistName := r.config.Sync.Frame, r.config.Sync.Playlist
	if frameName == "" {
		return fmt.Errorf("%w: --frame", shared.ErrMissingArgument)
	}

	dest, err := r.destinationService(ctx)
	if err != nil {
		return err
	}
	frames, err := r.frameController(ctx)
	if err != nil {
		return err
	}

	playlist, err := dest.GetPlaylistByName(ctx, playlistName)
	if err != nil {
		return err
	}
	frame, err := findFrame(ctx, frames, frameName)
	if err != nil {
		return err
	}

	if !frame.HasPlaylist(playlist.ID) {
		r.logger.Warn("frame does not carry the playlist, nothing started", "frame", frame.Name, "playlist", playlist.Name)
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("%s is not assigned to %s", playlist.Name, frame.Name)))
		return nil
	}

	r.logger.Info("starting playlist", "frame", frame.Name, "playlist", playlist.Name)
	if err := frames.StartPlaylist(ctx, frame.ID, playlist.ID); err != nil {
		return err
	}

	r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Started %s on %s", playlist.Name, frame.Name)))
	return nil
}

func findFrame(ctx context.Context, frames services.FrameController, name string) (*models.Frame, error) {
	all, err := frames.GetFrames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrFrameNotFound, name)
}

// splitListen parses host:port for the health server. ":8080" listens on all interfaces.
func splitListen(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: port %q", shared.ErrInvalidArgument, portStr)
	}
	if port <= 0 || port > 65535 {
		return "", 0, errors.New("port out of range")
	}
	return host, port, nil
}
