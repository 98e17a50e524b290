// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the claim-ranker CLI.
//
// The pipeline runs as separate subcommands (fetch, analyze, export) that
// hand results to each other through a local run store, or as one run
// command that performs every stage in a single process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/claim-ranker/internal/logging"
	"github.com/pdiddy/claim-ranker/internal/metrics"
	"github.com/pdiddy/claim-ranker/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state built once in PersistentPreRunE.
var (
	loadedSecrets *secrets.Set
	logger        *logrus.Logger
	runMetrics    *metrics.Metrics
)

// rootCmd is the base command for the claim-ranker CLI.
var rootCmd = &cobra.Command{
	Use:   "claim-ranker",
	Short: "Find and rank X posts worth a fact-check",
	Long: `claim-ranker pulls posts eligible for fact-check notes from the X API,
keeps the ones that likely carry a checkable claim, scores them for
importance and checkability, ranks them, and exports the result.

Stages are subcommands: fetch, analyze, and export. Each stage stores its
output in a local run database so the next one can pick it up. The run
command performs all three at once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(os.Stderr, viper.GetString("log.level"), viper.GetString("log.format"))
		runMetrics = metrics.New()

		s, err := secrets.Resolve(".env", ".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			sort.Strings(names)
			logger.WithField("files", names).Debug("loaded secrets")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("metrics.textfile")
		if path == "" {
			return nil
		}
		if err := runMetrics.WriteTextfile(path); err != nil {
			return fmt.Errorf("writing metrics textfile: %w", err)
		}
		logger.WithField("path", path).Debug("wrote metrics textfile")
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./claim-ranker.yaml or ~/.config/claim-ranker/claim-ranker.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("store", "", "run database path (default "+defaultStorePath+")")
	pf.String("metrics-textfile", "", "write Prometheus metrics for this invocation to a textfile")

	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("store.path", pf.Lookup("store"))
	viper.BindPFlag("metrics.textfile", pf.Lookup("metrics-textfile"))
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("claim-ranker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "claim-ranker"))
		}
	}

	viper.SetEnvPrefix("CLAIM_RANKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
