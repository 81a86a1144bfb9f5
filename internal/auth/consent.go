package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

// Scopes are the Workspace scopes a refresh token needs for every endpoint.
var Scopes = []string{
	calendar.CalendarScope,
	docs.DocumentsScope,
	sheets.SpreadsheetsScope,
	drive.DriveScope,
	slides.PresentationsScope,
}

// ErrNoRefreshToken is returned when a code exchange yields no refresh token,
// which happens when the account already granted consent without offline access.
var ErrNoRefreshToken = errors.New("no refresh token in exchange response, revoke access and retry with consent")

// ConsentConfig returns the OAuth config used to mint a refresh token for a user.
func ConsentConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// ConsentURL is the page the user visits to grant offline access.
func ConsentURL(conf *oauth2.Config) string {
	return conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades an authorization code for a refresh token.
func ExchangeCode(ctx context.Context, conf *oauth2.Config, code string) (string, error) {
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}
	return token.RefreshToken, nil
}
