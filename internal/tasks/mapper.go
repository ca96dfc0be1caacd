package tasks

import (
	"fmt"
	"slices"

	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/shared"
)

// MapPhoto converts a source photo into a playlist item.
//
// The large rendition is preferred for display and the original is the fallback. The medium
// rendition is always the thumbnail.
func MapPhoto(photo models.Photo) (models.PlaylistItem, error) {
	photoURL := photo.URLLarge
	if photoURL == "" {
		photoURL = photo.URLOriginal
	}
	if photoURL == "" {
		return models.PlaylistItem{}, fmt.Errorf("%w: photo %s has neither url_k nor url_o", shared.ErrMissingRequiredURL, photo.ID)
	}
	if photo.URLMedium == "" {
		return models.PlaylistItem{}, fmt.Errorf("%w: photo %s has no url_m", shared.ErrMissingRequiredURL, photo.ID)
	}

	return models.PlaylistItem{
		PhotoURL:     photoURL,
		ThumbnailURL: photo.URLMedium,
		Orientation:  models.OrientationOf(photo.Width, photo.Height),
	}, nil
}

// MapPhotos maps a page of photos, preserving order. The first unmappable photo fails the page.
func MapPhotos(photos []models.Photo) ([]models.PlaylistItem, error) {
	items := make([]models.PlaylistItem, 0, len(photos))
	for _, p := range photos {
		item, err := MapPhoto(p)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// insertionOrder returns a copy of items in the order to submit them so the destination
// ends up holding them in the given order.
func insertionOrder(items []models.PlaylistItem) []models.PlaylistItem {
	out := slices.Clone(items)
	slices.Reverse(out)
	return out
}
