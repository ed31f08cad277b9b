package commands

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"storefront-chat/internal/app"
	"storefront-chat/internal/config"
	"storefront-chat/internal/logging"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API",
		Long:  `Load configuration from the environment (and an optional .env file) and serve the chat API until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := godotenv.Load(envFile); err != nil {
				log.Printf("Warning: %s file not found: %v", envFile, err)
			}

			cfg, err := config.New()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			a, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Infof("🚀 storefront-chat %s starting", versionInfo.Version)
			return a.Run(ctx)
		},
	}
}
