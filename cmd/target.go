package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"loadgen/internal/config"
	"loadgen/internal/dummy"
	"loadgen/internal/logging"
)

func newTargetCmd(v *viper.Viper) *cobra.Command {
	targetCmd := &cobra.Command{
		Use:   "target",
		Short: "Run the built-in demo target server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(v.GetString(config.KeyLogLevel), v.GetString(config.KeyLogFormat))
			if err != nil {
				return err
			}
			defer logger.Sync()

			port, _ := cmd.Flags().GetInt("port")
			server, err := dummy.Start(dummy.ServerConfig{Port: port}, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info("shutting down target server")
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("target server shutdown", zap.Error(err))
			}
			return nil
		},
	}
	targetCmd.Flags().IntP("port", "p", 8080, "Port to run the target server on")
	return targetCmd
}
