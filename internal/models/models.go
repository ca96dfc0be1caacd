// package models defines the data model for the Flickr to Nixplay sync
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Orientation is the frame display orientation of a playlist item.
type Orientation int

const (
	Landscape Orientation = iota
	Portrait
)

func (o Orientation) String() string {
	if o == Portrait {
		return "portrait"
	}
	return "landscape"
}

// OrientationOf returns [Portrait] when height exceeds width and [Landscape] otherwise.
func OrientationOf(width, height int) Orientation {
	if height > width {
		return Portrait
	}
	return Landscape
}

// Photo represents a photo in a source album.
type Photo struct {
	ID          string
	Title       string
	LastUpdate  time.Time
	Width       int    // original width, 0 when unknown
	Height      int    // original height, 0 when unknown
	URLLarge    string // url_k
	URLMedium   string // url_m
	URLOriginal string // url_o
}

// Album represents a source photo album.
type Album struct {
	ID         string
	Title      string
	PhotoCount int
	UpdatedAt  time.Time
}

// Playlist represents a destination playlist on the photo frame service.
type Playlist struct {
	ID        string
	Name      string
	ItemCount int
	UpdatedAt time.Time
}

// PlaylistItem is a photo in the shape accepted by the destination insert call.
type PlaylistItem struct {
	PhotoURL     string      `json:"photoUrl"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Orientation  Orientation `json:"orientation"`
}

// Frame is a photo frame registered on the account.
type Frame struct {
	ID          string
	Name        string
	PlaylistIDs []string
}

// HasPlaylist reports whether playlistID is assigned to the frame.
func (f Frame) HasPlaylist(playlistID string) bool {
	for _, id := range f.PlaylistIDs {
		if id == playlistID {
			return true
		}
	}
	return false
}

// FrameStatus is the last known connectivity of a frame.
type FrameStatus struct {
	ID            string
	Online        bool
	LastConnected time.Time
}

// FrameSettings holds the display settings reported for a frame.
type FrameSettings struct {
	FrameID       string
	SlideDuration int // seconds
	Shuffle       bool
	Transition    string
}

// Outcome is the result class of a sync attempt.
type Outcome string

const (
	OutcomeSynced   Outcome = "synced"
	OutcomeUpToDate Outcome = "up_to_date"
	OutcomeFailed   Outcome = "failed"
)

// SyncRun is the journal record of one sync attempt.
//
// It is an audit record. Nothing reads it back to decide whether to sync.
type SyncRun struct {
	id              string
	Sequence        int
	Playlist        string
	Album           string
	Outcome         Outcome
	Reason          string
	Forced          bool
	Mutated         bool
	ItemsInserted   int
	ItemsDeleted    int
	InsertCalls     int
	SourceUpdatedAt time.Time
	DestUpdatedAt   time.Time
	StartedAt       time.Time
	CompletedAt     time.Time
	createdAt       time.Time
}

// NewSyncRun creates a [SyncRun] for the pair, started now.
func NewSyncRun(playlist, album string, forced bool) *SyncRun {
	now := time.Now().UTC()
	return &SyncRun{
		Playlist:  playlist,
		Album:     album,
		Forced:    forced,
		StartedAt: now,
		createdAt: now,
	}
}

func (r *SyncRun) ID() string               { return r.id }
func (r *SyncRun) SetID(id string)          { r.id = id }
func (r *SyncRun) CreatedAt() time.Time     { return r.createdAt }
func (r *SyncRun) SetCreatedAt(t time.Time) { r.createdAt = t }

// UpdatedAt returns the completion time, the last time the record changes.
func (r *SyncRun) UpdatedAt() time.Time {
	if r.CompletedAt.IsZero() {
		return r.createdAt
	}
	return r.CompletedAt
}

// Duration returns how long the attempt took.
func (r *SyncRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Validate checks that the run names its pair and carries a known outcome.
func (r *SyncRun) Validate() error {
	if r.Playlist == "" {
		return fmt.Errorf("playlist is required")
	}
	if r.Album == "" {
		return fmt.Errorf("album is required")
	}
	switch r.Outcome {
	case OutcomeSynced, OutcomeUpToDate, OutcomeFailed:
	default:
		return fmt.Errorf("unknown outcome %q", r.Outcome)
	}
	if r.ItemsInserted < 0 || r.ItemsDeleted < 0 || r.InsertCalls < 0 {
		return fmt.Errorf("counters must not be negative")
	}
	return nil
}
