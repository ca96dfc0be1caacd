package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/nixflix/internal/services"
	"github.com/desertthunder/nixflix/internal/shared"
	"github.com/urfave/cli/v3"
	"gopkg.in/masci/flickr.v3"
)

// FlickrAuthorizer runs the Flickr OAuth 1.0a out-of-band flow. [services.FlickrService] implements it.
type FlickrAuthorizer interface {
	RequestAuthorization() (*flickr.RequestToken, string, error)
	CompleteAuthorization(token *flickr.RequestToken, verifier string) (*flickr.OAuthToken, error)
}

// AuthFlickr authorizes read access to the user's Flickr photos and saves the access token to the config file.
//
// Flickr shows a verifier code after approval; the user pastes it back on stdin.
func (r *Runner) AuthFlickr(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Credentials.RequireFlickr(); err != nil {
		return err
	}

	authorizer := r.authorizer
	if authorizer == nil {
		authorizer = services.NewFlickrService(r.config.Credentials.Flickr, r.config.Flickr.Endpoint, r.logger)
	}

	requestToken, authURL, err := authorizer.RequestAuthorization()
	if err != nil {
		return err
	}

	r.writePlain("→ Opening browser for Flickr authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Paste the verification code shown by Flickr: ")
	verifier, err := r.readLine()
	if err != nil {
		return err
	}

	access, err := authorizer.CompleteAuthorization(requestToken, verifier)
	if err != nil {
		return err
	}

	creds := &r.config.Credentials.Flickr
	creds.OAuthToken = access.OAuthToken
	creds.OAuthTokenSecret = access.OAuthTokenSecret
	if access.UserNsid != "" {
		creds.UserID = access.UserNsid
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful for %s", access.Username)
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)
	return nil
}

// AuthNixplay logs in to the web and mobile APIs and reports the result.
func (r *Runner) AuthNixplay(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.destinationService(ctx); err != nil {
		return fmt.Errorf("web api: %w", err)
	}
	r.writePlain("✓ Web API login OK\n")

	if _, err := r.frameController(ctx); err != nil {
		return fmt.Errorf("mobile api: %w", err)
	}
	r.writePlain("✓ Mobile API login OK\n")
	return nil
}

func (r *Runner) readLine() (string, error) {
	scanner := bufio.NewScanner(r.input)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", fmt.Errorf("%w: verification code", shared.ErrMissingArgument)
	}
	return strings.TrimSpace(scanner.Text()), nil
}
