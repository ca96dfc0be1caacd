package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nixflix/internal/formatter"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/ui"
	"github.com/urfave/cli/v3"
)

// Status prints every frame with its slideshow settings and online status.
//
// With a configured playlist each report also says whether the frame carries it. A playlist lookup failure only
// drops that line.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	frames, err := r.frameController(ctx)
	if err != nil {
		return err
	}

	all, err := frames.GetFrames(ctx)
	if err != nil {
		return err
	}
	statuses, err := frames.GetOnlineStatus(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]models.FrameStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	playlistID, playlistName := r.lookupPlaylistID(ctx)

	reports := make([]formatter.FrameReport, 0, len(all))
	for _, frame := range all {
		report := formatter.FrameReport{Frame: frame}

		settings, err := frames.GetFrameSettings(ctx, frame.ID)
		if err != nil {
			r.logger.Warn("failed to read frame settings", "frame", frame.Name, "err", err)
		} else {
			report.Settings = settings
		}
		if s, ok := byID[frame.ID]; ok {
			report.Status = &s
		}
		if playlistID != "" {
			report.HasPlaylist = frame.HasPlaylist(playlistID)
		}
		reports = append(reports, report)
	}

	if cmd.Bool("json") {
		return r.writeJSON(reports, true)
	}

	r.writePlainHeader(fmt.Sprintf("Nixplay frames (%d)", len(reports)))
	for _, report := range reports {
		r.writePlain("%s", formatter.FrameReportToText(report, playlistName))
	}
	if len(reports) == 0 {
		r.writePlain("%s\n", ui.Warn("No frames on this account"))
	}
	return nil
}

// lookupPlaylistID resolves the configured playlist for status output, returning empty strings when it cannot.
func (r *Runner) lookupPlaylistID(ctx context.Context) (string, string) {
	if r.config.Sync.Playlist == "" {
		return "", ""
	}
	dest, err := r.destinationService(ctx)
	if err != nil {
		r.logger.Debug("skipping playlist lookup", "err", err)
		return "", ""
	}
	playlist, err := dest.GetPlaylistByName(ctx, r.config.Sync.Playlist)
	if err != nil {
		r.logger.Warn("playlist lookup failed", "playlist", r.config.Sync.Playlist, "err", err)
		return "", ""
	}
	return playlist.ID, playlist.Name
}
