package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "tally",
		Short: "🧮 Personal budget tracker",
		Long: `tally: a small command-line budget tracker. It keeps income and
expenses in a local SQLite ledger, labels them with optional categories,
and answers the questions that matter: what came in, what went out, and
where it went.

Every tally counts!`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig(cfgFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/tally/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("db", "", "database file (default: $HOME/.local/share/tally/tally.db)")

	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("database.path", flags.Lookup("db"))

	for _, sub := range []*cobra.Command{
		txCmd(),
		categoriesCmd(),
		summaryCmd(),
		recentCmd(),
		exportCmd(),
		importCmd(),
		syncCmd(),
		authCmd(),
		dashboardCmd(),
		statusCmd(),
		migrateCmd(),
		backupCmd(),
		versionCmd(),
	} {
		cmd.AddCommand(sub)
	}

	return cmd
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(common.UserMessage(err)))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupts := cli.NewInterruptHandler(os.Stdout)
	ctx = interrupts.HandleInterrupts(ctx)

	return newRootCmd().ExecuteContext(ctx)
}

// loadConfig wires viper to the config file, TALLY_* environment
// variables, and the configured logger. A missing config file is fine.
func loadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.Dir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TALLY")
	// Dots in config keys become underscores, so database.path reads
	// TALLY_DATABASE_PATH.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tally %s\n", version)
		},
	}
}
