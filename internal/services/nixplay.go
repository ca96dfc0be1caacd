// Nixplay web API [Destination] implementation
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/shared"
)

const defaultNixplayBaseURL = "https://api.nixplay.com"

// NixplayPlaylist is a playlist as listed by the web API.
type NixplayPlaylist struct {
	ID           FlexibleID `json:"id"`
	Name         string     `json:"name"`
	PictureCount int        `json:"picture_count"`
	LastUpdated  any        `json:"last_updated_date"` // ISO-8601 string, sometimes epoch seconds
}

// NixplaySlide is one item of a playlist.
type NixplaySlide struct {
	PlaylistItemID FlexibleID `json:"playlistItemId"`
	PhotoURL       string     `json:"originalUrl,omitempty"`
}

type nixplaySlides struct {
	Slides []NixplaySlide `json:"slides"`
}

type nixplayItemIDs struct {
	Items []string `json:"items"`
}

type nixplayItems struct {
	Items []models.PlaylistItem `json:"items"`
}

// NixplayService implements [Destination] against the Nixplay web API.
type NixplayService struct {
	api     *apiClient
	base    *url.URL
	session *Session
	logger  *log.Logger
}

// NixplayOptions configures a [NixplayService] or [NixplayMobile].
type NixplayOptions struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client // overrides the default client, its Jar is replaced
	Logger            *log.Logger
}

// NewNixplayService creates a Nixplay web client. Call [NixplayService.Login] before any other method.
func NewNixplayService(opts NixplayOptions) (*NixplayService, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultNixplayBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: nixplay base url: %v", shared.ErrInvalidConfig, err)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	session, err := newSession()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		httpClient = &c
	}
	httpClient.Jar = session.jar

	return &NixplayService{
		api: &apiClient{
			baseURL:    base.String(),
			httpClient: httpClient,
			limiter:    newLimiter(opts.RequestsPerSecond),
			decorate:   session.decorate,
		},
		base:    base,
		session: session,
		logger:  opts.Logger,
	}, nil
}

// Name returns the service name.
func (n *NixplayService) Name() string {
	return "Nixplay"
}

// Session returns the current web session.
func (n *NixplayService) Session() *Session {
	return n.session
}

// Login authenticates with the form login endpoint and keeps the resulting cookies.
//
// Calls POST /www-login/.
func (n *NixplayService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: nixplay username and password are required", shared.ErrMissingCredentials)
	}

	form := url.Values{}
	form.Set("email", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.api.baseURL+"/www-login/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, err := n.api.send(ctx, "nixplay.login", req, nil)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	n.session.captureCSRF(n.base)
	n.session.username = username
	n.session.loginAt = time.Now()

	n.logger.Debug("logged in to nixplay", "user", username, "csrf", n.session.csrfToken != "")
	return n.session, nil
}

func (n *NixplayService) requireSession() error {
	if n.session.username == "" {
		return fmt.Errorf("%w: call Login first", shared.ErrNotAuthenticated)
	}
	return nil
}

// GetPlaylists retrieves all playlists on the account.
//
// Calls GET /v3/playlists.
func (n *NixplayService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := n.requireSession(); err != nil {
		return nil, err
	}

	var raw []NixplayPlaylist
	if _, err := n.api.do(ctx, "nixplay.get_playlists", http.MethodGet, "/v3/playlists", nil, &raw); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(raw))
	for _, p := range raw {
		playlist, err := p.toModel()
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	return playlists, nil
}

// GetPlaylistByName returns the first playlist named name.
func (n *NixplayService) GetPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	playlists, err := n.GetPlaylists(ctx)
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

// GetItemIDs returns up to limit item IDs starting at offset.
//
// Calls GET /v3/playlists/{id}/slides?size={limit}&offset={offset}.
func (n *NixplayService) GetItemIDs(ctx context.Context, playlistID string, offset, limit int) ([]string, error) {
	if err := n.requireSession(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("size", fmt.Sprintf("%d", limit))
	query.Set("offset", fmt.Sprintf("%d", offset))
	endpoint := fmt.Sprintf("/v3/playlists/%s/slides?%s", url.PathEscape(playlistID), query.Encode())

	var resp nixplaySlides
	if _, err := n.api.do(ctx, "nixplay.get_slides", http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Slides))
	for _, s := range resp.Slides {
		ids = append(ids, s.PlaylistItemID.String())
	}
	return ids, nil
}

// DeleteItems removes items from the playlist.
//
// Calls DELETE /v3/playlists/{id}/items with {"items": [...]}.
func (n *NixplayService) DeleteItems(ctx context.Context, playlistID string, itemIDs []string) error {
	if err := n.requireSession(); err != nil {
		return err
	}
	if len(itemIDs) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/v3/playlists/%s/items", url.PathEscape(playlistID))
	_, err := n.api.do(ctx, "nixplay.delete_items", http.MethodDelete, endpoint, nixplayItemIDs{Items: itemIDs}, nil)
	return err
}

// InsertItems posts a batch of photos to the playlist.
//
// Calls POST /v3/playlists/{id}/items with {"items": [...]}.
func (n *NixplayService) InsertItems(ctx context.Context, playlistID string, items []models.PlaylistItem) (int, error) {
	if err := n.requireSession(); err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("/v3/playlists/%s/items", url.PathEscape(playlistID))
	return n.api.do(ctx, "nixplay.insert_items", http.MethodPost, endpoint, nixplayItems{Items: items}, nil)
}

func (p NixplayPlaylist) toModel() (models.Playlist, error) {
	playlist := models.Playlist{
		ID:        p.ID.String(),
		Name:      p.Name,
		ItemCount: p.PictureCount,
	}
	if p.LastUpdated == nil {
		return playlist, nil
	}

	updated, err := shared.NormalizeTimestamp(p.LastUpdated)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("playlist %q last_updated_date: %w", p.Name, err)
	}
	playlist.UpdatedAt = updated
	return playlist, nil
}

// IsNotFound reports whether err is one of the lookup-by-name failures.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrPlaylistNotFound) ||
		errors.Is(err, shared.ErrAlbumNotFound) ||
		errors.Is(err, shared.ErrFrameNotFound)
}
