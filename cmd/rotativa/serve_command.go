package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rotativa/internal/logging"
	"rotativa/internal/metrics"
	"rotativa/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the batch generation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			m := metrics.New()
			pipeline, completer, formatter, err := buildPipeline(cfg, logger, m)
			if err != nil {
				return err
			}

			bind := bindFlag
			if bind == "" {
				bind = cfg.Paths.APIBind
			}

			srv := server.New(bind, pipeline, formatter,
				server.WithLogger(logger),
				server.WithHealthChecker(completer),
				server.WithMetrics(m),
			)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := srv.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			srv.Stop()
			logger.Info("shut down", slog.String("reason", reason(runCtx)))
			return nil
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}

func reason(ctx context.Context) string {
	if ctx.Err() == context.Canceled {
		return "signal"
	}
	return ctx.Err().Error()
}
