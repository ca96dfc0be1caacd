// package tasks implements the Flickr album to Nixplay playlist sync.
//
// The core abstraction is SyncEngine, which resolves both sides, decides whether the playlist is
// stale and replaces it. Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/services"
	"github.com/desertthunder/nixflix/internal/shared"
)

// SyncResult describes one sync attempt.
type SyncResult struct {
	Playlist    *models.Playlist // Destination as read at the start of the attempt
	Album       *models.Album    // Source as read at the start of the attempt
	Outcome     models.Outcome
	Reason      error          // Set when Outcome is [models.OutcomeFailed]
	Forced      bool           // Sync was requested regardless of timestamps
	Replace     *ReplaceResult // nil unless a replacement was attempted
	StartedAt   time.Time
	CompletedAt time.Time
}

// Summary renders the result as a single line for logs and status output.
func (r *SyncResult) Summary() string {
	switch r.Outcome {
	case models.OutcomeSynced:
		return fmt.Sprintf("synced %d photos in %d calls", r.Replace.Inserted, r.Replace.InsertCalls)
	case models.OutcomeUpToDate:
		return "nothing to do"
	default:
		return fmt.Sprintf("failed: %v", r.Reason)
	}
}

// RunRecorder journals sync attempts. It never influences a decision.
//
// Latest returns [shared.ErrNoSyncRuns] when the pair has never been synced.
type RunRecorder interface {
	Record(run *models.SyncRun) error
	Latest(playlist, album string) (*models.SyncRun, error)
}

// SyncEngine performs sync attempts for one destination and one source.
type SyncEngine struct {
	destination services.Destination
	source      services.Source
	recorder    RunRecorder
	batchSize   int
	logger      *log.Logger
}

// NewSyncEngine creates a new SyncEngine with the provided services.
func NewSyncEngine(dest services.Destination, src services.Source, batchSize int, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncEngine{
		destination: dest,
		source:      src,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// WithRecorder journals every attempt to recorder.
func (e *SyncEngine) WithRecorder(recorder RunRecorder) *SyncEngine {
	e.recorder = recorder
	return e
}

// RunOnce performs a single sync attempt of albumName into destinationName.
//
// Both sides are read fresh. When the playlist is older than the album, or force is set, the
// playlist is replaced with the album. Every error aborts the attempt and is returned both as the
// error and as the result's Reason.
func (e *SyncEngine) RunOnce(ctx context.Context, destinationName, albumName string, force bool, progress chan<- ProgressUpdate) (*SyncResult, error) {
	result := &SyncResult{Forced: force, StartedAt: time.Now().UTC()}

	if e.destination == nil {
		return e.fail(result, destinationName, albumName, progress, fmt.Errorf("%w: Nixplay service not initialized", shared.ErrServiceUnavailable))
	}
	if e.source == nil {
		return e.fail(result, destinationName, albumName, progress, fmt.Errorf("%w: Flickr service not initialized", shared.ErrServiceUnavailable))
	}

	e.warnOnPreviousFailure(destinationName, albumName)

	sendProgress(progress, fetchDestUpdate(destinationName))
	playlist, err := e.destination.GetPlaylistByName(ctx, destinationName)
	if err != nil {
		return e.fail(result, destinationName, albumName, progress, err)
	}
	result.Playlist = playlist
	e.logger.Info("nixplay playlist", "name", playlist.Name, "photos", playlist.ItemCount, "updated", playlist.UpdatedAt)

	sendProgress(progress, fetchSourceUpdate(albumName))
	album, err := e.source.GetAlbumByName(ctx, albumName)
	if err != nil {
		return e.fail(result, destinationName, albumName, progress, err)
	}
	result.Album = album
	e.logger.Info("flickr album", "name", album.Title, "photos", album.PhotoCount, "updated", album.UpdatedAt)

	stale := NeedsSync(playlist.UpdatedAt, album.UpdatedAt, force)
	sendProgress(progress, compareUpdate(playlist, album, stale))
	if !stale {
		result.Outcome = models.OutcomeUpToDate
		return e.finish(result, destinationName, albumName, progress), nil
	}

	if force {
		e.logger.Warn("forced update")
	}
	e.logger.Info("updating", "from", "flickr["+album.Title+"]", "to", "nixplay["+playlist.Name+"]")

	replacer := NewReplacer(e.destination, e.source, e.batchSize, e.logger).WithProgress(progress)
	replaced, err := replacer.Replace(ctx, *playlist, *album)
	result.Replace = replaced
	if err != nil {
		return e.fail(result, destinationName, albumName, progress, err)
	}

	result.Outcome = models.OutcomeSynced
	return e.finish(result, destinationName, albumName, progress), nil
}

func (e *SyncEngine) fail(result *SyncResult, playlist, album string, progress chan<- ProgressUpdate, err error) (*SyncResult, error) {
	result.Outcome = models.OutcomeFailed
	result.Reason = err
	e.logger.Error("sync failed", "playlist", playlist, "album", album, "err", err)
	return e.finish(result, playlist, album, progress), err
}

func (e *SyncEngine) finish(result *SyncResult, playlist, album string, progress chan<- ProgressUpdate) *SyncResult {
	result.CompletedAt = time.Now().UTC()
	e.record(result, playlist, album)
	sendProgress(progress, finishedUpdate(result))
	return result
}

// record journals the attempt. Journal failures are logged and otherwise ignored.
func (e *SyncEngine) record(result *SyncResult, playlist, album string) {
	if e.recorder == nil {
		return
	}

	run := NewRunFromResult(result, playlist, album)
	if err := e.recorder.Record(run); err != nil {
		e.logger.Warn("failed to journal sync run", "err", err)
	}
}

// warnOnPreviousFailure logs when the last journalled attempt for the pair failed part way
// through a replacement. The destination timestamp still decides whether to sync.
func (e *SyncEngine) warnOnPreviousFailure(playlist, album string) {
	if e.recorder == nil {
		return
	}

	last, err := e.recorder.Latest(playlist, album)
	if err != nil {
		if !errors.Is(err, shared.ErrNoSyncRuns) {
			e.logger.Debug("could not read sync journal", "err", err)
		}
		return
	}
	if last.Outcome == models.OutcomeFailed && last.Mutated {
		e.logger.Warn("previous sync failed after modifying the playlist, it may be incomplete; use --force to rebuild it",
			"playlist", playlist, "failed_at", last.CompletedAt, "reason", last.Reason)
	}
}

// NewRunFromResult converts a result into its journal record.
func NewRunFromResult(result *SyncResult, playlist, album string) *models.SyncRun {
	run := models.NewSyncRun(playlist, album, result.Forced)
	run.Outcome = result.Outcome
	run.StartedAt = result.StartedAt
	run.CompletedAt = result.CompletedAt
	if result.Reason != nil {
		run.Reason = result.Reason.Error()
	}
	if result.Playlist != nil {
		run.DestUpdatedAt = result.Playlist.UpdatedAt
	}
	if result.Album != nil {
		run.SourceUpdatedAt = result.Album.UpdatedAt
	}
	if r := result.Replace; r != nil {
		run.Mutated = r.Mutated()
		run.ItemsInserted = r.Inserted
		run.ItemsDeleted = r.Deleted
		run.InsertCalls = r.InsertCalls
	}
	return run
}
