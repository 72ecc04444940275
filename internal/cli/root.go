package cli

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/submitter/internal/core/config"
)

var (
	cfgPath     string
	isDebug     bool
	metricsAddr string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "submitter",
	Short: "Transaction submitter",
	Long: `Submitter signs transactions, sends them to a JSON-RPC node and waits for the commit,
retrying node timeouts, stale nonces and expired block references.`,
	PersistentPreRun: setup,
	SilenceUsage:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address")
}

func setup(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	setupLogging(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}
}

func setupLogging(lc config.LoggingConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if isDebug {
		level = slog.LevelDebug
	}

	if lc.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
