// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"cinestream/internal/config"
	"cinestream/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagAPI      string
	flagLanguage string
	flagPlayer   string
	flagJSON     bool
	flagDebug    bool
	flagLogLevel string
	flagLogFile  string
	flagNoHist   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logger is built from cfg once flags are merged.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "cinestream",
	Short: "Resolve and play movie and episode streams from the terminal",
	Long: `cinestream resolves a playable stream and its language set for a movie or
episode, keeps the selected language in the watch address so it survives
re-runs, and re-resolves whenever the language changes.`,
	SilenceUsage:       true,
	PersistentPreRunE:  loadConfig,
	PersistentPostRunE: syncLogger,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagAPI, "api", "a", "", "Provider family: 8stream | consumet")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Subtitle language (default: english)")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print snapshots as JSON instead of the terminal UI")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug | info | warn | error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&flagNoHist, "no-history", false, "Do not read or write watch history")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagAPI != "" {
		cfg.API = flagAPI
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagLanguage != "" {
		cfg.SubsLanguage = flagLanguage
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFile != "" {
		cfg.LogFile = flagLogFile
	}
	if flagNoHist {
		cfg.History = false
	}
	if flagDebug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logPath := cfg.LogFile
	if logPath == "" && cmd.Name() == "watch" && useTUI() {
		// The terminal UI owns the screen; keep logs out of it.
		if logPath, err = config.DefaultLogPath(); err != nil {
			return err
		}
	}

	logger, err = logging.New(cfg.LogLevel, cfg.LogEncoding, logPath)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	logger.Debug("configuration loaded",
		zap.String("api", cfg.API), zap.String("player", cfg.Player), zap.String("log_file", logPath))

	return nil
}

func syncLogger(cmd *cobra.Command, args []string) error {
	_ = logger.Sync()
	return nil
}

// useTUI reports whether the terminal UI should be used for output.
func useTUI() bool {
	return !flagJSON && term.IsTerminal(int(os.Stdout.Fd()))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cinestream %s\n", Version)
	},
}
