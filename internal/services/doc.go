// Package services implements the remote APIs a sync talks to.
//
// # Interfaces
//
// The sync engine only sees three interfaces, so tests can swap in fakes:
//   - [Source] : album lookup and paged photo listing
//   - [Destination] : playlist lookup, paged item listing, batch delete and batch insert
//   - [FrameController] : frame listing, settings, online status and playlist restart
//
// # Flickr
//
// [FlickrService] uses gopkg.in/masci/flickr.v3. Requests are signed with the stored
// OAuth 1.0a access token when one is configured and fall back to api_key otherwise.
// [FlickrService.RequestAuthorization] and [FlickrService.CompleteAuthorization] run the
// out-of-band flow used by `nixflix auth flickr`.
//
// # Nixplay
//
// [NixplayService] talks to the web API. [NixplayService.Login] produces a [Session]
// (cookie jar plus CSRF token) which the service holds for every later call.
//
// [NixplayMobile] talks to the mobile API with an [oauth2.Token] obtained through the
// resource owner password grant.
//
// Both clients wait on a [rate.Limiter] before every request.
//
// # Error Handling
//
// Failed calls return a [*shared.RemoteError], which matches [shared.ErrRemoteCallFailed]:
//   - non-2xx responses carry the status code
//   - transport and decode failures carry the cause
//
// Lookups by name return [shared.ErrPlaylistNotFound], [shared.ErrAlbumNotFound] or [shared.ErrFrameNotFound].
package services
