package services

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// csrfCookieNames are the cookies the Nixplay web API has used for its CSRF token.
var csrfCookieNames = []string{"prod.csrftoken", "csrftoken"}

// Session is an authenticated Nixplay web session.
//
// It is produced by [NixplayService.Login] and owned by that service instance.
type Session struct {
	jar       http.CookieJar
	csrfToken string
	username  string
	loginAt   time.Time
}

// newSession creates an unauthenticated session with an empty cookie jar.
func newSession() (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Session{jar: jar}, nil
}

// CSRFToken returns the token sent with every mutating request.
func (s *Session) CSRFToken() string { return s.csrfToken }

// Username returns the account the session belongs to.
func (s *Session) Username() string { return s.username }

// LoginAt returns when the session was established.
func (s *Session) LoginAt() time.Time { return s.loginAt }

// Authenticated reports whether the session holds cookies for base.
func (s *Session) Authenticated(base *url.URL) bool {
	return s.username != "" && len(s.jar.Cookies(base)) > 0
}

// captureCSRF reads the CSRF cookie set for base during login.
func (s *Session) captureCSRF(base *url.URL) {
	for _, c := range s.jar.Cookies(base) {
		for _, name := range csrfCookieNames {
			if c.Name == name {
				s.csrfToken = c.Value
				return
			}
		}
	}
}

// decorate adds the CSRF header and a same-origin referer to req.
func (s *Session) decorate(req *http.Request) {
	if s.csrfToken != "" {
		req.Header.Set("X-CSRFToken", s.csrfToken)
	}
	req.Header.Set("Referer", req.URL.Scheme+"://"+req.URL.Host+"/")
}
