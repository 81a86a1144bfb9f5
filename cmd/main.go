package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"suiteagent/internal/auth"
	"suiteagent/internal/config"
	"suiteagent/internal/google"
	"suiteagent/internal/ondemand"
	"suiteagent/internal/server"
	"suiteagent/internal/timeparse"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "suiteagent",
		Usage: "Serve Google Workspace agent endpoints over HTTP.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to the TOML config file (default " + config.DefaultPath() + ")."},
			&cli.StringFlag{Name: "log-level", Usage: "Override the configured log level."},
		},
		Commands: []*cli.Command{
			serveCommand(),
			authCommand(),
			tokenCommand(),
			chatCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by the global flags and builds the logger.
func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address, overrides LISTEN_ADDR."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.ListenAddr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !cfg.OnDemand.Configured() {
				logger.Warn("On-demand API key is not set, chat endpoints will report misconfiguration")
			}

			timeout := cfg.Google.RequestTimeout()
			tokens := auth.NewResolver(logger, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenURL, timeout)
			connector := google.NewConnector(logger, cfg.Google.APIEndpoint, timeout)
			chat := ondemand.NewClient(logger, cfg.OnDemand)
			srv := server.New(cfg, logger, tokens, connector, timeparse.NewResolver(logger), chat)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize a Google account and print its refresh token.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "redirect-url", Value: "http://localhost", Usage: "Redirect URL registered for the OAuth client."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
				return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
			}
			logger.Info("Starting Google authorization flow.")

			conf := auth.ConsentConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, c.String("redirect-url"))
			fmt.Printf("Go to the following link in your browser, then paste the "+
				"code parameter from the redirect: \n%v\n", auth.ConsentURL(conf))

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			code, _ := reader.ReadString('\n')

			refreshToken, err := auth.ExchangeCode(c.Context, conf, strings.TrimSpace(code))
			if err != nil {
				return err
			}
			fmt.Printf("Refresh token (send it as the X-Refresh-Token header):\n%s\n", refreshToken)
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print an access token for the configured default user.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !cfg.Google.HasDefaultUser() {
				return fmt.Errorf("DEFAULT_USER_CLIENT_ID and DEFAULT_USER_REFRESH_TOKEN must be set")
			}

			tokens := auth.NewResolver(logger, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenURL, cfg.Google.RequestTimeout())
			token, err := tokens.AccessTokenFor(c.Context, cfg.Google.DefaultUserClientID, cfg.Google.DefaultUserRefreshToken)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Ask the on-demand chat API a single question.",
		ArgsUsage: "<question...>",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return fmt.Errorf("a question is required")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			answer, err := ondemand.NewClient(logger, cfg.OnDemand).Ask(ctx, query)
			if err != nil {
				logger.Error("Chat query failed", "error", err)
				fmt.Println(ondemand.FriendlyMessage(err))
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
