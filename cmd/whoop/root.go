// ABOUTME: Root Cobra command for the whoop CLI.
// ABOUTME: Loads config and wires the store, token manager and fetch client via PersistentPreRunE.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/harperreed/whoop/internal/auth"
	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/config"
	"github.com/harperreed/whoop/internal/display"
	"github.com/harperreed/whoop/internal/ingest"
	"github.com/harperreed/whoop/internal/logging"
	"github.com/harperreed/whoop/internal/storage"
	"github.com/harperreed/whoop/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var (
	configPath string
	logLevel   string

	a *app
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	store      *storage.Store
	tokens     *auth.Manager
	client     *client.Client
	button     *display.Button
}

// offline commands never touch the API.
var offline = map[string]bool{
	"fields":     true,
	"help":       true,
	"completion": true,
}

var rootCmd = &cobra.Command{
	Use:   "whoop",
	Short: "WHOOP telemetry cache",
	Long: `Whoop fetches your latest WHOOP recovery, sleep, cycle and workout records
into a small in-memory cache and shows them on the terminal.

QUICK START:

  $ export WHOOP_CLIENT_ID=...  WHOOP_CLIENT_SECRET=...
  $ whoop login                     # Print the authorization URL
  $ whoop login --code <code>       # Exchange the code from the redirect
  $ whoop fetch                     # Fetch every variant once
  $ whoop fetch recovery sleep      # Fetch some variants
  $ whoop serve                     # Tick loop plus local control server

FIELDS:

  Every stored value has a 16-bit option code. List them with:

  $ whoop fields workout

CONFIGURATION:

  Settings live in ~/.config/whoop/config.json (or $WHOOP_CONFIG).
  A .env file in the working directory and WHOOP_* environment
  variables override the file. Set "persist_tokens": true to keep the
  latest refresh token in the config file.

MCP INTEGRATION:

  Run 'whoop mcp' to expose the cache to MCP-compatible assistants.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if offline[cmd.Name()] {
			return nil
		}

		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
			cfg.LogLevel = logLevel
		}

		logger, err := logging.New(os.Stderr, cfg.GetLogLevel())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		if err := cfg.Validate(); err != nil {
			return err
		}

		a, err = newApp(cfg, config.ExpandPath(path), logger)
		return err
	},
}

// newApp wires the components around one store.
func newApp(cfg *config.Config, path string, logger *slog.Logger) (*app, error) {
	requester, err := transport.NewHTTP(transport.Config{
		BaseURL: cfg.GetBaseURL(),
		Timeout: cfg.GetRequestTimeout(),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	var onRefresh func(*oauth2.Token)
	if cfg.PersistTokens {
		onRefresh = func(tok *oauth2.Token) {
			if tok.RefreshToken == "" {
				return
			}
			if err := config.SaveRefreshToken(path, tok.RefreshToken); err != nil {
				logger.Warn("failed to save refresh token", "path", path, "error", err)
				return
			}
			logger.Debug("refresh token saved", "path", path)
		}
	}

	tokens, err := auth.NewManager(auth.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		RedirectURI:    cfg.GetRedirectURI(),
		AuthURL:        cfg.GetAuthURL(),
		BaseURL:        cfg.GetBaseURL(),
		Requester:      requester,
		RefreshToken:   cfg.RefreshToken,
		OnTokenRefresh: onRefresh,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	store := storage.New(cfg.GetCapacity())
	c, err := client.New(client.Config{
		Requester: requester,
		Tokens:    tokens,
		Ingester:  ingest.NewPipeline(store, logger),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		store:      store,
		tokens:     tokens,
		client:     c,
		button:     &display.Button{},
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/whoop/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
}
