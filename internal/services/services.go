// package services defines the remote collaborators of a sync: the Flickr album source,
// the Nixplay playlist destination and the Nixplay frame controller.
package services

import (
	"context"

	"github.com/desertthunder/nixflix/internal/models"
)

// Source reads albums and their photos from the photo-sharing service.
type Source interface {
	// GetAlbumByName returns the first album whose title matches name exactly.
	// Returns [shared.ErrAlbumNotFound] when there is none.
	GetAlbumByName(ctx context.Context, name string) (*models.Album, error)

	// GetPhotosPage returns one page of the album in album order. Pages are 1-based.
	GetPhotosPage(ctx context.Context, albumID string, page, perPage int) ([]models.Photo, error)
}

// Destination reads and mutates playlists on the photo frame service.
type Destination interface {
	// GetPlaylists retrieves all playlists on the account.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylistByName returns the first playlist whose name matches exactly.
	// Returns [shared.ErrPlaylistNotFound] when there is none.
	GetPlaylistByName(ctx context.Context, name string) (*models.Playlist, error)

	// GetItemIDs returns up to limit item IDs starting at the 0-based offset.
	GetItemIDs(ctx context.Context, playlistID string, offset, limit int) ([]string, error)

	// DeleteItems removes the items. The remaining items close up, so positions after them shift down.
	DeleteItems(ctx context.Context, playlistID string, itemIDs []string) error

	// InsertItems appends a batch to the playlist and returns the HTTP status of the call.
	// Items of one call end up in reverse submission order.
	InsertItems(ctx context.Context, playlistID string, items []models.PlaylistItem) (int, error)

	// Name returns the name of the service.
	Name() string
}

// FrameController inspects and drives the photo frames on the account.
type FrameController interface {
	GetFrames(ctx context.Context) ([]models.Frame, error)
	GetFrameSettings(ctx context.Context, frameID string) (*models.FrameSettings, error)
	GetOnlineStatus(ctx context.Context) ([]models.FrameStatus, error)
	StartPlaylist(ctx context.Context, frameID, playlistID string) error
}
