package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nsxbet/sql-lessons/pkg/config"
	"github.com/nsxbet/sql-lessons/pkg/engine"
	"github.com/nsxbet/sql-lessons/pkg/logger"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sql-lessons",
	Short: "Maintenance tools for a corpus of SQL lessons",
	Long: `sql-lessons keeps a directory of SQL teaching lessons healthy.

It runs every lesson example against a real SQL engine, synthesizes
exercises from each lesson's setup statements, keeps lessons in step
with their rendered HTML pages and executes the queue of pending
cleanup statements lessons leave behind.

Supported engines: SQLite (default, in-memory or file), DuckDB (duckdb:, *.duckdb),
PostgreSQL and libSQL.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sql-lessons.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")
	rootCmd.PersistentFlags().String("db", "", "database target (default :memory:, or $DATABASE_URL)")
	rootCmd.PersistentFlags().String("dir", "examples", "directory holding the lesson files")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format (text, json, yaml)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("examples_dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".sql-lessons" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sql-lessons")
	}

	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix("SQL_LESSONS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("Ignoring environment file", "error", err)
	}

	// A missing config file is fine; flags and defaults still apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			slog.Warn("Config file error (ignoring)", "file", cfgFile, "error", err)
		}
	} else {
		slog.Debug("Using config file", "file", viper.ConfigFileUsed())
	}
}

// setupLogger installs the console logger at the level the global flags ask for.
func setupLogger() logger.Interface {
	logLevel := slog.LevelWarn
	if viper.GetBool("debug") {
		logLevel = slog.LevelDebug
	} else if viper.GetBool("verbose") {
		logLevel = slog.LevelInfo
	}
	return logger.NewWithLevel(logLevel)
}

// loadConfig resolves and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// openSession connects to the configured database target.
func openSession(ctx context.Context, cfg *config.Config) (*engine.SQLSession, error) {
	target := cfg.DatabaseTarget()
	session, err := engine.Open(ctx, target, cfg.SessionOptions()...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", redactTarget(target))
	}
	slog.Debug("Engine session ready", "kind", session.Kind())
	return session, nil
}

// redactTarget hides credentials in URL style targets before they are printed.
func redactTarget(target string) string {
	scheme, rest, ok := strings.Cut(target, "://")
	if !ok {
		return target
	}
	if q := strings.Index(rest, "?"); q >= 0 {
		rest = rest[:q] + "?***"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}

// exit terminates the process with code.
func exit(code types.ExitCode) {
	os.Exit(int(code))
}
