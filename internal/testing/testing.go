// package testing contains shared testing utilities and in-memory fakes of the remote services
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/shared"
)

// FakeItem is an item held by [FakeDestination].
type FakeItem struct {
	ID   string
	Item models.PlaylistItem
}

type fakePlaylist struct {
	meta  models.Playlist
	items []FakeItem
}

// FakeDestination is an in-memory [services.Destination].
//
// It behaves like the Nixplay web API: deletes close up the gap, and each insert call appends
// its items after the existing ones in reverse submission order. It records every call, the item
// count after every mutation and the smallest such count.
type FakeDestination struct {
	mu        sync.Mutex
	playlists []*fakePlaylist
	nextID    int

	Now func() time.Time // stamps UpdatedAt on every mutation, defaults to time.Now

	Calls       map[string]int   // call counts by operation
	Counts      map[string][]int // item count after each mutation, by playlist ID
	InsertSizes []int            // size of each insert call
	FailOn      map[string]int   // fail the n-th call (1-based) of an operation
	FailStatus  int              // status code of injected failures, 500 by default
}

// NewFakeDestination creates an empty fake destination.
func NewFakeDestination() *FakeDestination {
	return &FakeDestination{
		Calls:  map[string]int{},
		Counts: map[string][]int{},
		FailOn: map[string]int{},
	}
}

// AddPlaylist adds a playlist seeded with n items and returns its ID.
func (d *FakeDestination) AddPlaylist(name string, updatedAt time.Time, n int) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := fmt.Sprintf("pl-%d", len(d.playlists)+1)
	p := &fakePlaylist{meta: models.Playlist{ID: id, Name: name, UpdatedAt: updatedAt}}
	for i := 0; i < n; i++ {
		p.items = append(p.items, FakeItem{
			ID:   d.newID(),
			Item: models.PlaylistItem{PhotoURL: fmt.Sprintf("old-%d", i), ThumbnailURL: fmt.Sprintf("old-thumb-%d", i)},
		})
	}
	d.playlists = append(d.playlists, p)
	return id
}

// Items returns a copy of the items of the playlist.
func (d *FakeDestination) Items(playlistID string) []FakeItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p := d.find(playlistID); p != nil {
		return slices.Clone(p.items)
	}
	return nil
}

// PhotoURLs returns the photo URLs of the playlist in order.
func (d *FakeDestination) PhotoURLs(playlistID string) []string {
	var urls []string
	for _, it := range d.Items(playlistID) {
		urls = append(urls, it.Item.PhotoURL)
	}
	return urls
}

// MinCount returns the smallest item count observed after a mutation, or -1 when nothing was mutated.
func (d *FakeDestination) MinCount(playlistID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	counts := d.Counts[playlistID]
	if len(counts) == 0 {
		return -1
	}
	return slices.Min(counts)
}

func (d *FakeDestination) Name() string { return "fake" }

func (d *FakeDestination) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.call(ctx, "get_playlists"); err != nil {
		return nil, err
	}

	out := make([]models.Playlist, 0, len(d.playlists))
	for _, p := range d.playlists {
		meta := p.meta
		meta.ItemCount = len(p.items)
		out = append(out, meta)
	}
	return out, nil
}

func (d *FakeDestination) GetPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	playlists, err := d.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		if playlists[i].Name == name {
			return &playlists[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, name)
}

func (d *FakeDestination) GetItemIDs(ctx context.Context, playlistID string, offset, limit int) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.call(ctx, "get_item_ids"); err != nil {
		return nil, err
	}
	p := d.find(playlistID)
	if p == nil {
		return nil, shared.NewRemoteError("get_item_ids", http.StatusNotFound, nil)
	}

	var ids []string
	for i := offset; i < len(p.items) && len(ids) < limit; i++ {
		ids = append(ids, p.items[i].ID)
	}
	return ids, nil
}

func (d *FakeDestination) DeleteItems(ctx context.Context, playlistID string, itemIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.call(ctx, "delete_items"); err != nil {
		return err
	}
	p := d.find(playlistID)
	if p == nil {
		return shared.NewRemoteError("delete_items", http.StatusNotFound, nil)
	}

	p.items = slices.DeleteFunc(p.items, func(it FakeItem) bool {
		return slices.Contains(itemIDs, it.ID)
	})
	d.mutated(p)
	return nil
}

func (d *FakeDestination) InsertItems(ctx context.Context, playlistID string, items []models.PlaylistItem) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.call(ctx, "insert_items"); err != nil {
		return d.failStatus(), err
	}
	p := d.find(playlistID)
	if p == nil {
		return http.StatusNotFound, shared.NewRemoteError("insert_items", http.StatusNotFound, nil)
	}

	d.InsertSizes = append(d.InsertSizes, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		p.items = append(p.items, FakeItem{ID: d.newID(), Item: items[i]})
	}
	d.mutated(p)
	return http.StatusCreated, nil
}

func (d *FakeDestination) call(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return shared.NewRemoteError(op, 0, err)
	}
	d.Calls[op]++
	if n, ok := d.FailOn[op]; ok && d.Calls[op] == n {
		return shared.NewRemoteError(op, d.failStatus(), nil)
	}
	return nil
}

func (d *FakeDestination) failStatus() int {
	if d.FailStatus == 0 {
		return http.StatusInternalServerError
	}
	return d.FailStatus
}

func (d *FakeDestination) mutated(p *fakePlaylist) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	p.meta.UpdatedAt = now().UTC()
	d.Counts[p.meta.ID] = append(d.Counts[p.meta.ID], len(p.items))
}

func (d *FakeDestination) find(id string) *fakePlaylist {
	for _, p := range d.playlists {
		if p.meta.ID == id {
			return p
		}
	}
	return nil
}

func (d *FakeDestination) newID() string {
	d.nextID++
	return fmt.Sprintf("item-%d", d.nextID)
}

// FakeSource is an in-memory [services.Source].
type FakeSource struct {
	mu     sync.Mutex
	albums []models.Album
	photos map[string][]models.Photo

	PageCalls int
	FailPage  int // fail GetPhotosPage for this page number
}

// NewFakeSource creates an empty fake source.
func NewFakeSource() *FakeSource {
	return &FakeSource{photos: map[string][]models.Photo{}}
}

// AddAlbum adds an album holding photos and returns its ID.
func (s *FakeSource) AddAlbum(title string, updatedAt time.Time, photos []models.Photo) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("album-%d", len(s.albums)+1)
	s.albums = append(s.albums, models.Album{ID: id, Title: title, PhotoCount: len(photos), UpdatedAt: updatedAt})
	s.photos[id] = photos
	return id
}

func (s *FakeSource) GetAlbumByName(ctx context.Context, name string) (*models.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, shared.NewRemoteError("get_album", 0, err)
	}
	for i := range s.albums {
		if s.albums[i].Title == name {
			a := s.albums[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, name)
}

func (s *FakeSource) GetPhotosPage(ctx context.Context, albumID string, page, perPage int) ([]models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, shared.NewRemoteError("get_photos", 0, err)
	}
	s.PageCalls++
	if s.FailPage == page {
		return nil, shared.NewRemoteError("get_photos", http.StatusBadGateway, nil)
	}

	photos := s.photos[albumID]
	start := (page - 1) * perPage
	if start >= len(photos) {
		return nil, nil
	}
	end := min(start+perPage, len(photos))
	return slices.Clone(photos[start:end]), nil
}

// MakePhotos builds n mappable photos named p0..p{n-1}.
func MakePhotos(n int) []models.Photo {
	photos := make([]models.Photo, n)
	for i := range photos {
		photos[i] = models.Photo{
			ID:        fmt.Sprintf("p%d", i),
			URLLarge:  fmt.Sprintf("https://k/p%d.jpg", i),
			URLMedium: fmt.Sprintf("https://m/p%d.jpg", i),
			Width:     4000,
			Height:    3000,
		}
	}
	return photos
}

// PhotoURLs returns the display URL of each photo as the mapper would pick it.
func PhotoURLs(photos []models.Photo) []string {
	urls := make([]string, len(photos))
	for i, p := range photos {
		urls[i] = p.URLLarge
		if urls[i] == "" {
			urls[i] = p.URLOriginal
		}
	}
	return urls
}

// FakeFrames is an in-memory [services.FrameController].
type FakeFrames struct {
	Frames   []models.Frame
	Settings map[string]models.FrameSettings
	Statuses []models.FrameStatus
	Started  [][2]string // frameID, playlistID of every StartPlaylist call
	Err      error
}

func (f *FakeFrames) GetFrames(ctx context.Context) ([]models.Frame, error) {
	return f.Frames, f.Err
}

func (f *FakeFrames) GetFrameSettings(ctx context.Context, frameID string) (*models.FrameSettings, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.Settings[frameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrFrameNotFound, frameID)
	}
	return &s, nil
}

func (f *FakeFrames) GetOnlineStatus(ctx context.Context) ([]models.FrameStatus, error) {
	return f.Statuses, f.Err
}

func (f *FakeFrames) StartPlaylist(ctx context.Context, frameID, playlistID string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Started = append(f.Started, [2]string{frameID, playlistID})
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
