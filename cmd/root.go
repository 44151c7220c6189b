package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loadgen/internal/banner"
	"loadgen/internal/cli"
	"loadgen/internal/config"
	"loadgen/internal/logging"
)

// NewRootCmd builds the command tree around its own viper instance so tests can
// run it in isolation.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "loadgen",
		Short: "loadgen - fixed-rate HTTP load generator",
		Long: `
loadgen sends GET requests to a target URL at a fixed rate for a fixed
duration and reports latency percentiles, throughput, status codes and errors.

Examples:
  loadgen --url http://localhost:8080/fast --rate 50 --duration 30s
  loadgen -u http://localhost:8080/slow -r 5 -d 1m -o report.json --tui`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, v)
		},
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), banner.GetString())
		cmd.Usage()
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.loadgen.yaml)")
	rootCmd.PersistentFlags().String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String(config.KeyLogFormat, "console", "Log format (console, json)")

	f := rootCmd.Flags()
	f.StringP(config.KeyURL, "u", "", "Target URL (required)")
	f.StringP(config.KeyDuration, "d", "1m", "Duration of the load test (e.g. 30s, 5m, 1h)")
	f.IntP(config.KeyRate, "r", 10, "Requests per second")
	f.String(config.KeyTimeout, "30s", "Per-request timeout")
	f.StringP(config.KeyReportFile, "o", "", "Path to save the JSON report (optional)")
	f.String(config.KeyGrace, "2s", "Time allowed for in-flight requests after dispatch stops")
	f.String(config.KeyProgressInterval, "10s", "Interval between progress lines")
	f.String(config.KeyMetricsAddr, "", "Expose Prometheus metrics on this address during the run (e.g. :9100)")
	f.Bool(config.KeyTUI, false, "Show the live dashboard instead of progress lines")

	v.BindPFlags(rootCmd.PersistentFlags())
	v.BindPFlags(f)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newTargetCmd(v))
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigType("yaml")
			v.SetConfigName(".loadgen")
		}
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		// Only a missing $HOME/.loadgen.yaml is acceptable.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func runLoad(cmd *cobra.Command, v *viper.Viper) error {
	logger, err := logging.New(v.GetString(config.KeyLogLevel), v.GetString(config.KeyLogFormat))
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = cli.Start(ctx, cfg, cli.Options{
		Logger:      logger,
		Stdout:      cmd.OutOrStdout(),
		MetricsAddr: v.GetString(config.KeyMetricsAddr),
		TUI:         v.GetBool(config.KeyTUI),
	})
	return err
}
