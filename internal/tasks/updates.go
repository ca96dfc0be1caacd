package tasks

import (
	"fmt"

	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/shared"
)

// ProgressUpdate represents a progress event during a sync attempt.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchDest Phase = iota
	FetchSource
	Compare
	ClearItems
	InsertItems
	RemovePlaceholder
	Finished
)

func (p Phase) String() string {
	switch p {
	case FetchDest:
		return "fetch_dest"
	case FetchSource:
		return "fetch_source"
	case Compare:
		return "compare"
	case ClearItems:
		return "clear_items"
	case InsertItems:
		return "insert_items"
	case RemovePlaceholder:
		return "remove_placeholder"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func fetchDestUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching Nixplay playlist (%s)...", name),
	}
}

func fetchSourceUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching Flickr album (%s)...", name),
	}
}

func compareUpdate(pl *models.Playlist, album *models.Album, stale bool) ProgressUpdate {
	verdict := "up to date"
	if stale {
		verdict = "needs update"
	}
	return ProgressUpdate{
		Phase: Compare,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Nixplay %s (%d photos, %s) vs Flickr %s (%d photos, %s): %s",
			pl.Name, pl.ItemCount, pl.UpdatedAt.Format("2006-01-02 15:04:05Z07:00"),
			album.Title, album.PhotoCount, album.UpdatedAt.Format("2006-01-02 15:04:05Z07:00"),
			verdict),
	}
}

func clearItemsUpdate(deleted, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearItems,
		Step:    deleted,
		Total:   total,
		Message: fmt.Sprintf("Removed %d/%d old photos", deleted, total),
	}
}

func insertItemsUpdate(page, pages, count, status int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertItems,
		Step:    page,
		Total:   pages,
		Message: fmt.Sprintf("[%d/%d] Posted %d photos (%s)", page, pages, count, shared.StatusLabel(status)),
		Data:    status,
	}
}

func removePlaceholderUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemovePlaceholder,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removed %d placeholder photo(s)", count),
	}
}

func finishedUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Step:    1,
		Total:   1,
		Message: result.Summary(),
		Data:    result,
	}
}
