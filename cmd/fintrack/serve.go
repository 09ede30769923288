package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := apphttp.NewServer(a.records, apphttp.Options{
			Addr:               ":" + a.cfg.Port,
			CurrencySymbol:     a.cfg.CurrencySymbol,
			RateLimitPerMinute: a.cfg.RateLimitPerMinute,
			Logger:             a.logger,
		})
		srv.ReadTimeout = 10 * time.Second
		srv.WriteTimeout = 10 * time.Second
		srv.IdleTimeout = 60 * time.Second
		srv.MaxHeaderBytes = 64 * 1024

		_, done := cli.GracefulShutdown(a.logger, 30*time.Second, func(ctx context.Context) {
			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("Server shutdown error", log.FieldError, err)
			}
		})

		a.logger.Info("Starting HTTP server",
			"addr", srv.Addr,
			log.FieldBackend, a.cfg.DataBackend,
			"events", a.cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		<-done
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (env PORT)")
}
