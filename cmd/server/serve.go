package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahsanfayaz52/notesapp/internal/auth"
	"github.com/ahsanfayaz52/notesapp/internal/db"
	"github.com/ahsanfayaz52/notesapp/internal/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		conn, err := db.Open(ctx, cfg.DBOptions())
		if err != nil {
			return err
		}
		defer conn.Close()

		router, err := handlers.NewRouter(handlers.Deps{
			Notes:        db.NewNoteStore(conn),
			Users:        db.NewUserStore(conn),
			Tokens:       db.NewTokenStore(conn),
			JWT:          auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			CookieSecure: cfg.Auth.CookieSecure,
			Logger:       logger,
		})
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", srv.Addr, "driver", conn.Dialect)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
