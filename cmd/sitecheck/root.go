package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/app"
	"github.com/hamed0406/sitecheck/internal/config"
	"github.com/hamed0406/sitecheck/internal/logging"
	"github.com/hamed0406/sitecheck/internal/shutdown"
)

// flagKeys maps viper keys to the flags that override them.
var flagKeys = map[string]string{
	"threads":   "threads",
	"timeout":   "timeout",
	"retries":   "retries",
	"period":    "period",
	"file":      "file",
	"contains":  "contains",
	"log_dir":   "log-dir",
	"log_level": "log-level",
	"listen":    "listen",
}

func newRootCmd() *cobra.Command { return newCommand(viper.New()) }

func newCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sitecheck [flags] [URL...]",
		Short:         "Concurrent HTTP endpoint health checker",
		Long:          "sitecheck checks a list of URLs with a fixed pool of workers, prints one JSON line per result and a stats summary after every round.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, args)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	f := cmd.Flags()
	d := config.Defaults()
	f.IntP("threads", "n", d.Workers, "number of worker goroutines")
	f.IntP("timeout", "t", int(d.Timeout.Seconds()), "per-request timeout in seconds")
	f.IntP("retries", "r", d.MaxRetries, "extra attempts after the first failure")
	f.IntP("period", "p", 0, "seconds between rounds; 0 runs once")
	f.StringP("file", "f", "", "file with one URL per line (# starts a comment)")
	f.StringArrayP("header", "H", nil, `required response header "Name: Value" (repeatable)`)
	f.String("contains", "", "substring the response body must contain")
	f.String("log-dir", d.LogDir, "directory for the rotating log file")
	f.String("log-level", d.LogLevel, "debug|info|warn|error")
	f.String("listen", "", "address for the status API, e.g. :8080 (empty disables it)")

	for key, flag := range flagKeys {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

// loadConfig resolves flags over SITECHECK_* environment over defaults.
func loadConfig(cmd *cobra.Command, v *viper.Viper, args []string) (config.Config, error) {
	config.SetDefaults(v)
	v.SetEnvPrefix("SITECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Header values may carry commas, so they skip viper's CSV handling.
	if headers, err := cmd.Flags().GetStringArray("header"); err == nil && len(headers) > 0 {
		v.Set("header", headers)
	}

	cfg, err := config.FromViper(v, args)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("sitecheck_start",
		zap.Int("urls", len(cfg.URLs)),
		zap.Int("workers", cfg.Workers),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("retries", cfg.MaxRetries),
		zap.Duration("period", cfg.Period),
	)

	stop := shutdown.New()
	unwatch := shutdown.Watch(stop, logger, os.Interrupt, syscall.SIGTERM)
	defer unwatch()

	go func() {
		<-stop.Done()
		fmt.Fprintln(cmd.ErrOrStderr(), "Interrupt received, shutting down...")
	}()

	if err := app.Run(context.Background(), cfg, logger, cmd.OutOrStdout(), stop); err != nil {
		return err
	}
	if stop.Requested() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Shutdown complete.")
	}
	return nil
}
