package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/nixflix/internal/formatter"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/services"
	"github.com/desertthunder/nixflix/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the account's Nixplay playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	dest, err := r.destinationService(ctx)
	if err != nil {
		return err
	}

	playlists, err := dest.GetPlaylists(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("fetched playlists", "count", len(playlists))

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("Nixplay playlists (%d)", len(playlists)))
	r.writePlain("%s", formatter.PlaylistsToText(playlists))
	return nil
}

// Album lists every photo of the configured Flickr album, paging the way a sync does.
func (r *Runner) Album(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if r.config.Sync.Album == "" {
		return fmt.Errorf("%w: --flickr-album", shared.ErrMissingArgument)
	}

	src, err := r.sourceService()
	if err != nil {
		return err
	}

	album, err := src.GetAlbumByName(ctx, r.config.Sync.Album)
	if err != nil {
		return err
	}

	photos, err := r.albumPhotos(ctx, src, album)
	if err != nil {
		return err
	}

	data, err := formatter.FormatAlbum(album, photos, format)
	if err != nil {
		return err
	}
	return r.export(data, cmd.String("output"))
}

func (r *Runner) albumPhotos(ctx context.Context, src services.Source, album *models.Album) ([]models.Photo, error) {
	perPage := r.config.Sync.BatchSize
	pages := (album.PhotoCount + perPage - 1) / perPage

	photos := make([]models.Photo, 0, album.PhotoCount)
	for page := 1; page <= pages; page++ {
		batch, err := src.GetPhotosPage(ctx, album.ID, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		photos = append(photos, batch...)
	}
	return photos, nil
}

// History prints journalled sync attempts, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	journal, err := r.runJournal()
	if err != nil {
		return err
	}
	if journal == nil {
		return fmt.Errorf("%w: database path is empty, the run journal is disabled", shared.ErrInvalidConfig)
	}

	if age := cmd.Duration("prune"); age > 0 {
		pruner, ok := journal.(Pruner)
		if !ok {
			return fmt.Errorf("%w: journal cannot be pruned", shared.ErrInvalidArgument)
		}
		removed, err := pruner.Prune(time.Now().Add(-age))
		if err != nil {
			return err
		}
		r.logger.Info("pruned sync runs", "removed", removed, "older_than", age)
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if outcome := cmd.String("outcome"); outcome != "" {
		criteria["outcome"] = models.Outcome(outcome)
	}

	runs, err := journal.List(criteria)
	if err != nil {
		return err
	}

	data, err := formatter.FormatHistory(runs, format)
	if err != nil {
		return err
	}
	return r.export(data, cmd.String("output"))
}

// export writes data to path, or to the runner's output when path is empty.
func (r *Runner) export(data []byte, path string) error {
	if path == "" {
		return r.write(data)
	}
	if err := formatter.WriteExport(data, path); err != nil {
		return err
	}
	r.logger.Info("export written", "path", path)
	return nil
}
