// Nixplay mobile API [FrameController] implementation
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
	"golang.org/x/oauth2"
)

const (
	defaultNixplayMobileURL = "https://mobile-api.nixplay.com"
	mobileClientID          = "nixplay-mobile"
)

type mobileFrame struct {
	ID        FlexibleID `json:"id"`
	Name      string     `json:"name"`
	Playlists []struct {
		ID FlexibleID `json:"id"`
	} `json:"playlists"`
}

type mobileFrames struct {
	Frames []mobileFrame `json:"frames"`
}

type mobileSettings struct {
	SlideshowDuration int    `json:"slideshowDuration"`
	Shuffle           bool   `json:"shuffle"`
	TransitionEffect  string `json:"transitionEffect"`
}

type mobileStatus struct {
	Frames []struct {
		ID            FlexibleID `json:"id"`
		Online        bool       `json:"online"`
		LastConnected int64      `json:"lastConnected"` // epoch milliseconds
	} `json:"frames"`
}

// NixplayMobile implements [FrameController] against the Nixplay mobile API.
type NixplayMobile struct {
	config     *oauth2.Config
	token      *oauth2.Token
	baseURL    string
	httpClient *http.Client
	opts       NixplayOptions
	api        *apiClient
	logger     *log.Logger
}

// NewNixplayMobile creates a mobile API client. Call [NixplayMobile.Login] before any other method.
func NewNixplayMobile(opts NixplayOptions) *NixplayMobile {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultNixplayMobileURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &NixplayMobile{
		config: &oauth2.Config{
			ClientID: mobileClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL:    baseURL,
		httpClient: httpClient,
		opts:       opts,
		logger:     opts.Logger,
	}
}

// Token returns the current access token, nil before login.
func (m *NixplayMobile) Token() *oauth2.Token {
	return m.token
}

// Login exchanges the account credentials for an access token with the password grant.
func (m *NixplayMobile) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: nixplay username and password are required", shared.ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	token, err := m.config.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, shared.NewRemoteError("nixplay_mobile.login", retrieveErr.Response.StatusCode, err))
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, shared.NewRemoteError("nixplay_mobile.login", 0, err))
	}

	m.token = token
	client := m.config.Client(ctx, token)
	client.Timeout = m.opts.Timeout
	m.api = &apiClient{
		baseURL:    m.baseURL,
		httpClient: client,
		limiter:    newLimiter(m.opts.RequestsPerSecond),
	}

	m.logger.Debug("logged in to nixplay mobile", "user", username, "expires", token.Expiry)
	return token, nil
}

func (m *NixplayMobile) requireToken() error {
	if m.api == nil {
		return fmt.Errorf("%w: call Login first", shared.ErrNotAuthenticated)
	}
	return nil
}

// GetFrames lists the frames on the account with their assigned playlists.
//
// Calls GET /v3/frames.
func (m *NixplayMobile) GetFrames(ctx context.Context) ([]models.Frame, error) {
	if err := m.requireToken(); err != nil {
		return nil, err
	}

	var resp mobileFrames
	if _, err := m.api.do(ctx, "nixplay_mobile.get_frames", http.MethodGet, "/v3/frames", nil, &resp); err != nil {
		return nil, err
	}

	frames := make([]models.Frame, 0, len(resp.Frames))
	for _, f := range resp.Frames {
		frame := models.Frame{ID: f.ID.String(), Name: f.Name}
		for _, p := range f.Playlists {
			frame.PlaylistIDs = append(frame.PlaylistIDs, p.ID.String())
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// GetFrameByName returns the first frame named name.
func (m *NixplayMobile) GetFrameByName(ctx context.Context, name string) (*models.Frame, error) {
	frames, err := m.GetFrames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range frames {
		if frames[i].Name == name {
			return &frames[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrFrameNotFound, name)
}

// GetFrameSettings returns the slideshow settings of a frame.
//
// Calls GET /v3/frames/{id}/settings.
func (m *NixplayMobile) GetFrameSettings(ctx context.Context, frameID string) (*models.FrameSettings, error) {
	if err := m.requireToken(); err != nil {
		return nil, err
	}

	var resp mobileSettings
	endpoint := fmt.Sprintf("/v3/frames/%s/settings", url.PathEscape(frameID))
	if _, err := m.api.do(ctx, "nixplay_mobile.get_frame_settings", http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	return &models.FrameSettings{
		FrameID:       frameID,
		SlideDuration: resp.SlideshowDuration,
		Shuffle:       resp.Shuffle,
		Transition:    resp.TransitionEffect,
	}, nil
}

// GetOnlineStatus reports connectivity for every frame.
//
// Calls GET /v3/frames/online-status.
func (m *NixplayMobile) GetOnlineStatus(ctx context.Context) ([]models.FrameStatus, error) {
	if err := m.requireToken(); err != nil {
		return nil, err
	}

	var resp mobileStatus
	if _, err := m.api.do(ctx, "nixplay_mobile.get_online_status", http.MethodGet, "/v3/frames/online-status", nil, &resp); err != nil {
		return nil, err
	}

	statuses := make([]models.FrameStatus, 0, len(resp.Frames))
	for _, f := range resp.Frames {
		status := models.FrameStatus{ID: f.ID.String(), Online: f.Online}
		if f.LastConnected > 0 {
			status.LastConnected = time.UnixMilli(f.LastConnected).UTC()
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// StartPlaylist restarts playlistID on the frame.
//
// Calls POST /v3/frames/{frameID}/playlists/{playlistID}/start.
func (m *NixplayMobile) StartPlaylist(ctx context.Context, frameID, playlistID string) error {
	if err := m.requireToken(); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("/v3/frames/%s/playlists/%s/start", url.PathEscape(frameID), url.PathEscape(playlistID))
	_, err := m.api.do(ctx, "nixplay_mobile.start_playlist", http.MethodPost, endpoint, struct{}{}, nil)
	return err
}
