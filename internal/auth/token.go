package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ErrMissingRefreshToken is returned when no refresh token was supplied.
var ErrMissingRefreshToken = errors.New("refresh token is required")

// TokenError is returned when the token endpoint rejects a refresh request.
type TokenError struct {
	StatusCode int
	Body       string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Rejected reports whether the provider refused the credentials themselves,
// as opposed to failing for some other reason.
func (e *TokenError) Rejected() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnauthorized
}

// Resolver exchanges refresh tokens for short-lived access tokens.
// Nothing is cached; every call is a fresh round trip to the token endpoint.
type Resolver struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewResolver creates a Resolver for the given OAuth client.
func NewResolver(logger *slog.Logger, clientID, clientSecret, tokenURL string, timeout time.Duration) *Resolver {
	return &Resolver{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// AccessToken exchanges refreshToken using the server's own client id.
func (r *Resolver) AccessToken(ctx context.Context, refreshToken string) (string, error) {
	return r.AccessTokenFor(ctx, r.clientID, refreshToken)
}

// AccessTokenFor exchanges refreshToken on behalf of clientID. The client secret
// is always the server's.
func (r *Resolver) AccessTokenFor(ctx context.Context, clientID, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingRefreshToken
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: r.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  r.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	start := time.Now()
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			r.logger.Warn("Token endpoint rejected refresh request",
				"status", retrieveErr.Response.StatusCode,
				"errorCode", retrieveErr.ErrorCode,
				"duration", time.Since(start))
			return "", &TokenError{StatusCode: retrieveErr.Response.StatusCode, Body: string(retrieveErr.Body)}
		}
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}

	r.logger.Debug("Obtained access token", "duration", time.Since(start))
	return token.AccessToken, nil
}
