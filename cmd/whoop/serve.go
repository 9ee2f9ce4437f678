// ABOUTME: CLI command for running the tick loop and control server.
// ABOUTME: Runs until SIGINT or SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/whoop/internal/display"
	"github.com/harperreed/whoop/internal/loop"
	"github.com/harperreed/whoop/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tick loop and control server",
	Long: `Fetch one variant per tick and show the selected variant's headline.

The tick loop rotates through recovery, sleep, cycle and workout. The
terminal shows a coloured reading whenever the selected headline changes.

CONTROL SERVER:

  GET  /health                  Liveness and auth state
  GET  /authenticate            Redirect to the WHOOP authorization page
  GET  /authenticate/callback   OAuth redirect target
  GET  /refresh_token           Refresh the access token
  GET  /whoop/{variant}         Fetch one variant now
  GET  /whoop/print             Every cached record
  POST /display/next            Advance the displayed variant

EXAMPLES:

  whoop serve                        # Listen on 127.0.0.1:3100
  whoop serve --addr :8080           # Listen elsewhere`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := serveAddr
		if addr == "" {
			addr = a.cfg.GetListenAddr()
		}

		lp := loop.New(loop.Config{
			Fetcher:  a.client,
			Store:    a.store,
			Renderer: display.NewRenderer(a.store, display.NewTerminalActuator(cmd.OutOrStdout())),
			Input:    a.button,
			Interval: a.cfg.GetTickInterval(),
			Logger:   a.logger,
		})
		srv := server.New(server.Config{
			Auth:    a.tokens,
			Fetcher: a.client,
			Store:   a.store,
			Button:  a.button,
			Logger:  a.logger,
		})

		loopDone := make(chan error, 1)
		go func() {
			loopDone <- lp.Run(ctx)
		}()

		err := srv.ListenAndServe(ctx, addr)
		stop()
		if loopErr := <-loopDone; err == nil {
			err = loopErr
		}
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "control server address (default: listen_addr from config)")
	rootCmd.AddCommand(serveCmd)
}
