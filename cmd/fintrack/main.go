package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

var rootCmd = &cobra.Command{
	Use:           "fintrack",
	Short:         "Track income and expenses and see where the money goes",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
	},
}

// app is what every record command needs: the resolved configuration, the
// logger and a service bound to the configured store.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	records *services.RecordService
	store   *backend.BackendResult
}

func newApp(ctx context.Context, cmd *cobra.Command, withEvents bool) (*app, error) {
	cfg, err := cli.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher
	if withEvents {
		if client := cli.OpenPublisher(cfg, logger); client != nil {
			publisher = client
		}
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		records: services.NewRecordService(store.Store, publisher, logger),
		store:   store,
	}, nil
}

func (a *app) Close() {
	if err := a.records.Close(); err != nil {
		a.logger.Warn("Error closing record service", log.FieldError, err)
	}
	if a.store.Cleanup != nil {
		if err := a.store.Cleanup(); err != nil {
			a.logger.Warn("Error closing record store", log.FieldError, err)
		}
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (env "+config.ConfigFileEnv+")")
	pf.String("data-backend", "", "record store: csv, memory, sqlite or postgres")
	pf.String("data-file", "", "CSV file used by the csv backend")
	pf.String("sqlite-db-path", "", "database file used by the sqlite backend")
	pf.String("currency-symbol", "", "symbol printed after amounts")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")

	rootCmd.AddCommand(serveCmd, addCmd, listCmd, summaryCmd, clearCmd, exportCmd, importOFXCmd, workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
