package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trainmap/gymdex/internal/session"
)

var serveFlags struct {
	port         int
	initialQuery string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session gateway for a web UI",
	Long:  "Hosts one search session and exposes its state, markers, and actions over HTTP.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		local := newLocal(ctx)
		defer local.Close()

		s := session.New(newClient(), local,
			session.WithDebounce(cfg.Search.Debounce()),
			session.WithSelectionWindow(cfg.Search.SelectionWindow()),
			session.WithClusterOptions(clusterOptions()),
		)
		defer s.Close()
		s.Start(serveFlags.initialQuery)

		port := serveFlags.port
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: s.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down session gateway")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting session gateway", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.initialQuery, "query", "", "initial URL query to hydrate the session from")
	rootCmd.AddCommand(serveCmd)
}
