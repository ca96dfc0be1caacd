// Flickr [Source] implementation
package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/shared"
	"gopkg.in/masci/flickr.v3"
)

const (
	flickrListPageSize = 500
	flickrPhotoExtras  = "url_k,url_m,url_o,o_dims,last_update"
)

// FlickrPhotoset is an album entry of flickr.photosets.getList.
type FlickrPhotoset struct {
	ID          string `xml:"id,attr"`
	Title       string `xml:"title"`
	CountPhotos string `xml:"count_photos,attr"`
	Photos      string `xml:"photos,attr"`
	DateUpdate  string `xml:"date_update,attr"`
}

// FlickrPhotosetList is the response of flickr.photosets.getList.
type FlickrPhotosetList struct {
	flickr.BasicResponse
	Photosets struct {
		Page     int              `xml:"page,attr"`
		Pages    int              `xml:"pages,attr"`
		Photoset []FlickrPhotoset `xml:"photoset"`
	} `xml:"photosets"`
}

// FlickrPhoto is a photo entry of flickr.photosets.getPhotos with the requested extras.
type FlickrPhoto struct {
	ID          string `xml:"id,attr"`
	Title       string `xml:"title,attr"`
	LastUpdate  string `xml:"lastupdate,attr"`
	URLLarge    string `xml:"url_k,attr"`
	URLMedium   string `xml:"url_m,attr"`
	URLOriginal string `xml:"url_o,attr"`
	WidthO      string `xml:"width_o,attr"`
	HeightO     string `xml:"height_o,attr"`
}

// FlickrPhotosetPhotos is the response of flickr.photosets.getPhotos.
type FlickrPhotosetPhotos struct {
	flickr.BasicResponse
	Photoset struct {
		ID    string        `xml:"id,attr"`
		Page  int           `xml:"page,attr"`
		Pages int           `xml:"pages,attr"`
		Total int           `xml:"total,attr"`
		Photo []FlickrPhoto `xml:"photo"`
	} `xml:"photoset"`
}

// FlickrService implements [Source] using gopkg.in/masci/flickr.v3.
type FlickrService struct {
	client   *flickr.FlickrClient
	endpoint string
	userID   string
	logger   *log.Logger
}

// NewFlickrService creates a Flickr client from the configured key pair and optional access token.
//
// endpoint overrides the REST endpoint when non-empty.
func NewFlickrService(creds shared.FlickrCredentials, endpoint string, logger *log.Logger) *FlickrService {
	client := flickr.NewFlickrClient(creds.APIKey, creds.APISecret)
	if creds.OAuthToken != "" && creds.OAuthTokenSecret != "" {
		client.OAuthToken = creds.OAuthToken
		client.OAuthTokenSecret = creds.OAuthTokenSecret
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &FlickrService{
		client:   client,
		endpoint: endpoint,
		userID:   creds.UserID,
		logger:   logger,
	}
}

// SetHTTPClient replaces the HTTP client used for every request.
func (f *FlickrService) SetHTTPClient(c *http.Client) {
	f.client.HTTPClient = c
}

// Name returns the service name.
func (f *FlickrService) Name() string {
	return "Flickr"
}

// call prepares method with args, signs it and decodes the response into resp.
func (f *FlickrService) call(ctx context.Context, method string, args map[string]string, resp flickr.FlickrResponse) error {
	if err := ctx.Err(); err != nil {
		return shared.NewRemoteError(method, 0, err)
	}

	f.client.Init()
	if f.endpoint != "" {
		f.client.EndpointUrl = f.endpoint
	}
	f.client.Args.Set("method", method)
	for k, v := range args {
		f.client.Args.Set(k, v)
	}

	if f.client.OAuthToken != "" {
		f.client.OAuthSign()
	} else {
		f.client.Args.Set("api_key", f.client.ApiKey)
	}

	if err := flickr.DoGet(f.client, resp); err != nil {
		return shared.NewRemoteError(method, 0, err)
	}
	if resp.HasErrors() {
		return shared.NewRemoteError(method, 0, fmt.Errorf("flickr API error %d: %s", resp.ErrorCode(), resp.ErrorMsg()))
	}
	return nil
}

// GetAlbums lists every album of the configured user.
func (f *FlickrService) GetAlbums(ctx context.Context) ([]models.Album, error) {
	var albums []models.Album

	for page := 1; ; page++ {
		args := map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(flickrListPageSize),
		}
		if f.userID != "" {
			args["user_id"] = f.userID
		}

		resp := &FlickrPhotosetList{}
		if err := f.call(ctx, "flickr.photosets.getList", args, resp); err != nil {
			return nil, err
		}

		for _, set := range resp.Photosets.Photoset {
			album, err := set.toModel()
			if err != nil {
				return nil, err
			}
			albums = append(albums, album)
		}

		if page >= resp.Photosets.Pages {
			break
		}
	}

	return albums, nil
}

// GetAlbumByName returns the first album titled name.
//
// The album must carry date_update: without it the freshness check could never see the album as newer.
func (f *FlickrService) GetAlbumByName(ctx context.Context, name string) (*models.Album, error) {
	albums, err := f.GetAlbums(ctx)
	if err != nil {
		return nil, err
	}

	for i := range albums {
		if albums[i].Title != name {
			continue
		}
		if albums[i].UpdatedAt.IsZero() {
			return nil, fmt.Errorf("%w: album %q has no date_update", shared.ErrMalformedTimestamp, name)
		}
		return &albums[i], nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, name)
}

// GetPhotosPage returns page (1-based) of the album with perPage photos per page.
func (f *FlickrService) GetPhotosPage(ctx context.Context, albumID string, page, perPage int) ([]models.Photo, error) {
	args := map[string]string{
		"photoset_id": albumID,
		"extras":      flickrPhotoExtras,
		"media":       "photos",
		"page":        strconv.Itoa(page),
		"per_page":    strconv.Itoa(perPage),
	}
	if f.userID != "" {
		args["user_id"] = f.userID
	}

	resp := &FlickrPhotosetPhotos{}
	if err := f.call(ctx, "flickr.photosets.getPhotos", args, resp); err != nil {
		return nil, err
	}

	photos := make([]models.Photo, 0, len(resp.Photoset.Photo))
	for _, p := range resp.Photoset.Photo {
		photo, err := p.toModel()
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	f.logger.Debug("fetched album page", "album", albumID, "page", page, "photos", len(photos))
	return photos, nil
}

// RequestAuthorization starts the out-of-band OAuth flow and returns the request token with the URL the user must visit.
func (f *FlickrService) RequestAuthorization() (*flickr.RequestToken, string, error) {
	token, err := flickr.GetRequestToken(f.client)
	if err != nil {
		return nil, "", fmt.Errorf("%w: request token: %v", shared.ErrAuthFailed, err)
	}

	authURL, err := flickr.GetAuthorizeUrl(f.client, token)
	if err != nil {
		return nil, "", fmt.Errorf("%w: authorize url: %v", shared.ErrAuthFailed, err)
	}
	return token, authURL, nil
}

// CompleteAuthorization exchanges the verifier code for an access token and starts using it.
func (f *FlickrService) CompleteAuthorization(token *flickr.RequestToken, verifier string) (*flickr.OAuthToken, error) {
	if verifier == "" {
		return nil, fmt.Errorf("%w: verifier code", shared.ErrMissingArgument)
	}

	access, err := flickr.GetAccessToken(f.client, token, verifier)
	if err != nil {
		return nil, fmt.Errorf("%w: access token: %v", shared.ErrAuthFailed, err)
	}

	f.client.OAuthToken = access.OAuthToken
	f.client.OAuthTokenSecret = access.OAuthTokenSecret
	if f.userID == "" {
		f.userID = access.UserNsid
	}
	return access, nil
}

func (s FlickrPhotoset) toModel() (models.Album, error) {
	album := models.Album{ID: s.ID, Title: s.Title}

	count := s.CountPhotos
	if count == "" {
		count = s.Photos
	}
	if count != "" {
		n, err := strconv.Atoi(count)
		if err != nil {
			return models.Album{}, fmt.Errorf("%w: album %q photo count %q", shared.ErrInvalidInput, s.Title, count)
		}
		album.PhotoCount = n
	}

	if s.DateUpdate != "" {
		updated, err := shared.NormalizeTimestamp(s.DateUpdate)
		if err != nil {
			return models.Album{}, fmt.Errorf("album %q date_update: %w", s.Title, err)
		}
		album.UpdatedAt = updated
	}
	return album, nil
}

func (p FlickrPhoto) toModel() (models.Photo, error) {
	photo := models.Photo{
		ID:          p.ID,
		Title:       p.Title,
		URLLarge:    p.URLLarge,
		URLMedium:   p.URLMedium,
		URLOriginal: p.URLOriginal,
		Width:       atoiOrZero(p.WidthO),
		Height:      atoiOrZero(p.HeightO),
	}

	if p.LastUpdate != "" {
		updated, err := shared.NormalizeTimestamp(p.LastUpdate)
		if err != nil {
			return models.Photo{}, fmt.Errorf("photo %s lastupdate: %w", p.ID, err)
		}
		photo.LastUpdate = updated
	}
	return photo, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
