package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Mirror record events from the broker into a second store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		if err := cfg.ValidateWorker(); err != nil {
			return err
		}
		logger, err := cli.SetupLogger(cfg)
		if err != nil {
			return err
		}
		logger = logger.WithComponent(log.ComponentWorker)

		mc, err := backend.MirrorFromAppConfig(cfg)
		if err != nil {
			return err
		}
		mirror, err := backend.NewFactory(logger.Logger).CreateMirror(cmd.Context(), mc)
		if err != nil {
			return err
		}
		defer func() {
			if mirror.Cleanup != nil {
				if err := mirror.Cleanup(); err != nil {
					logger.Warn("Error closing mirror", log.FieldError, err)
				}
			}
		}()

		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {})

		logger.Info("Mirror worker starting",
			"mirror", mc.Type,
			"queue", cfg.AMQPQueue,
			"heartbeat", cfg.HeartbeatInterval)
		if err := worker.NewMirrorWorker(mirror.Mirror, logger.Logger).Run(ctx, client, cfg.HeartbeatInterval); err != nil {
			return err
		}
		<-done
		return nil
	},
}

func init() {
	workerCmd.Flags().String("mirror-backend", "", "sqlite, postgres or sheets")
}
