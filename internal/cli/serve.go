package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/shaum/internal/server"
)

func (a *app) newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fasting calendar over HTTP",
		Long: "Start an HTTP server with the endpoints:\n" +
			"  GET /health\n" +
			"  GET /api/v1/today\n" +
			"  GET /api/v1/days/:date\n" +
			"  GET /api/v1/months/:year/:month[?index=hijri]",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagWasSet(cmd.Flags(), cmd.Root().PersistentFlags(), "listen") {
				a.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr: a.cfg.Listen,
				Handler: server.New(server.Options{
					Store:     s,
					Generator: a.generator(ctx),
					Logger:    a.log,
					Now:       now,
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				errc <- srv.ListenAndServe()
			}()
			a.log.Info().Str("addr", a.cfg.Listen).Msg("listening")
			fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", a.cfg.Listen)

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.log.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default: :8080)")

	return cmd
}
