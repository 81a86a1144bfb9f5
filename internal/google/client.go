package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

// Connector builds Workspace API clients bound to a caller's access token.
// Clients are per request; nothing is shared between callers.
type Connector struct {
	logger   *slog.Logger
	endpoint string
	timeout  time.Duration
}

// NewConnector creates a Connector. endpoint overrides the base URL of every
// service when non-empty, which is how tests point the clients at a fake.
func NewConnector(logger *slog.Logger, endpoint string, timeout time.Duration) *Connector {
	return &Connector{logger: logger, endpoint: endpoint, timeout: timeout}
}

func (c *Connector) options(accessToken string) []option.ClientOption {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: ts, Base: http.DefaultTransport},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return opts
}

// Calendar returns a Calendar client for accessToken.
func (c *Connector) Calendar(ctx context.Context, accessToken string) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, c.options(accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, logger: c.logger.With("service", "calendar")}, nil
}

// Docs returns a Docs client for accessToken.
func (c *Connector) Docs(ctx context.Context, accessToken string) (*DocsClient, error) {
	service, err := docs.NewService(ctx, c.options(accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}
	return &DocsClient{service: service, logger: c.logger.With("service", "docs")}, nil
}

// Sheets returns a Sheets client for accessToken.
func (c *Connector) Sheets(ctx context.Context, accessToken string) (*SheetsClient, error) {
	service, err := sheets.NewService(ctx, c.options(accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{service: service, logger: c.logger.With("service", "sheets")}, nil
}

// Drive returns a Drive client for accessToken.
func (c *Connector) Drive(ctx context.Context, accessToken string) (*DriveClient, error) {
	service, err := drive.NewService(ctx, c.options(accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveClient{service: service, logger: c.logger.With("service", "drive")}, nil
}

// Slides returns a Slides client for accessToken.
func (c *Connector) Slides(ctx context.Context, accessToken string) (*SlidesClient, error) {
	service, err := slides.NewService(ctx, c.options(accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create slides service: %w", err)
	}
	return &SlidesClient{service: service, logger: c.logger.With("service", "slides")}, nil
}
