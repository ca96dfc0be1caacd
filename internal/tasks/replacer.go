package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/services"
	"github.com/desertthunder/nixflix/internal/shared"
)

// ReplaceResult counts the remote mutations of one replacement pass.
type ReplaceResult struct {
	InsertCalls  int   // Insert calls made
	Inserted     int   // Items submitted across all insert calls
	Deleted      int   // Items removed, placeholders included
	PageStatuses []int // HTTP status of each insert call, in page order
}

// Mutated reports whether the pass changed the destination at all.
func (r *ReplaceResult) Mutated() bool {
	return r.InsertCalls > 0 || r.Deleted > 0
}

// Replacer rebuilds a destination playlist from a source album one page at a time.
//
// All but one existing item are removed first. The survivor keeps the playlist non-empty
// while the album is inserted and is removed last.
type Replacer struct {
	Destination services.Destination
	Source      services.Source
	BatchSize   int
	Logger      *log.Logger

	progress chan<- ProgressUpdate
}

// NewReplacer creates a [Replacer]. batchSize < 1 falls back to [shared.MaxBatchSize].
func NewReplacer(dest services.Destination, src services.Source, batchSize int, logger *log.Logger) *Replacer {
	if batchSize < 1 {
		batchSize = shared.MaxBatchSize
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Replacer{Destination: dest, Source: src, BatchSize: batchSize, Logger: logger}
}

// WithProgress makes the replacer report each mutation on progress.
func (r *Replacer) WithProgress(progress chan<- ProgressUpdate) *Replacer {
	r.progress = progress
	return r
}

// Replace makes playlist hold exactly the photos of album, in album order.
//
// The returned result is non-nil even on error and counts what was done before the failure.
// Nothing is rolled back.
func (r *Replacer) Replace(ctx context.Context, playlist models.Playlist, album models.Album) (*ReplaceResult, error) {
	result := &ReplaceResult{}
	batch := r.BatchSize
	if batch < 1 {
		batch = shared.MaxBatchSize
	}

	n := playlist.ItemCount
	if n > 1 {
		if err := r.deleteRange(ctx, playlist.ID, 1, n-1, batch, result); err != nil {
			return result, fmt.Errorf("clearing playlist %s: %w", playlist.Name, err)
		}
	}

	placeholders := 1
	if n <= 1 {
		placeholders = n
	}

	var placeholderIDs []string
	if placeholders > 0 {
		ids, err := r.Destination.GetItemIDs(ctx, playlist.ID, 0, placeholders)
		if err != nil {
			return result, fmt.Errorf("reading placeholder of %s: %w", playlist.Name, err)
		}
		placeholderIDs = ids
	}

	pages := pageCount(album.PhotoCount, batch)
	for page := 1; page <= pages; page++ {
		photos, err := r.Source.GetPhotosPage(ctx, album.ID, page, batch)
		if err != nil {
			return result, fmt.Errorf("fetching page %d of album %s: %w", page, album.Title, err)
		}
		if len(photos) == 0 {
			r.Logger.Warn("album page is empty, album shorter than reported", "album", album.Title, "page", page, "pages", pages)
			break
		}

		items, err := MapPhotos(photos)
		if err != nil {
			return result, fmt.Errorf("mapping page %d of album %s: %w", page, album.Title, err)
		}

		status, err := r.Destination.InsertItems(ctx, playlist.ID, insertionOrder(items))
		if err != nil {
			return result, fmt.Errorf("posting page %d to %s: %w", page, playlist.Name, err)
		}

		result.InsertCalls++
		result.Inserted += len(items)
		result.PageStatuses = append(result.PageStatuses, status)

		r.Logger.Info("posted photos", "page", page, "pages", pages, "count", len(items), "status", shared.StatusLabel(status))
		sendProgress(r.progress, insertItemsUpdate(page, pages, len(items), status))
	}

	if len(placeholderIDs) > 0 {
		if err := r.Destination.DeleteItems(ctx, playlist.ID, placeholderIDs); err != nil {
			return result, fmt.Errorf("removing placeholder from %s: %w", playlist.Name, err)
		}
		result.Deleted += len(placeholderIDs)
		sendProgress(r.progress, removePlaceholderUpdate(len(placeholderIDs)))
	}

	return result, nil
}

// deleteRange removes count items starting at offset start.
//
// Each delete closes the gap, so every batch is read from start again. A short read means the
// collection is smaller than reported and ends the range.
func (r *Replacer) deleteRange(ctx context.Context, playlistID string, start, count, batch int, result *ReplaceResult) error {
	for remaining := count; remaining > 0; {
		size := min(batch, remaining)

		ids, err := r.Destination.GetItemIDs(ctx, playlistID, start, size)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			r.Logger.Warn("playlist holds fewer items than reported", "playlist", playlistID, "missing", remaining)
			return nil
		}
		if len(ids) > size {
			ids = ids[:size]
		}

		if err := r.Destination.DeleteItems(ctx, playlistID, ids); err != nil {
			return err
		}

		remaining -= len(ids)
		result.Deleted += len(ids)
		r.Logger.Debug("deleted items", "playlist", playlistID, "count", len(ids), "remaining", remaining)
		sendProgress(r.progress, clearItemsUpdate(count-remaining, count))
	}
	return nil
}

// pageCount returns ceil(total/size).
func pageCount(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
