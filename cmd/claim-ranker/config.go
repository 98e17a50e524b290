// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/claim-ranker/internal/export"
	"github.com/pdiddy/claim-ranker/internal/llm"
	"github.com/pdiddy/claim-ranker/internal/rank"
	"github.com/pdiddy/claim-ranker/internal/store"
	"github.com/pdiddy/claim-ranker/pkg/types"
)

const defaultStorePath = store.DefaultPath

// setDefaults registers every configuration key so that environment
// variables and config files can override any of them.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("store.path", defaultStorePath)
	viper.SetDefault("metrics.textfile", "")

	viper.SetDefault("fetch.timeout", 30*time.Second)
	viper.SetDefault("fetch.user_agent", "claim-ranker/"+version)
	viper.SetDefault("fetch.test_mode", true)
	viper.SetDefault("fetch.max_results", 100)
	viper.SetDefault("fetch.pages", 2)
	viper.SetDefault("fetch.hydrate_metrics", true)
	viper.SetDefault("fetch.compute_reach", true)
	viper.SetDefault("fetch.page_delay", time.Second)
	viper.SetDefault("fetch.lookup_delay", time.Second)
	viper.SetDefault("fetch.default_retry_after", 60*time.Second)
	viper.SetDefault("fetch.max_retry_after", 5*time.Minute)
	viper.SetDefault("fetch.lookup_attempts", 3)
	viper.SetDefault("fetch.backoff_base", time.Second)

	viper.SetDefault("ai.model", llm.DefaultModel)
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.temperature", llm.DefaultTemperature)
	viper.SetDefault("ai.max_tokens", llm.DefaultMaxTokens)
	viper.SetDefault("ai.max_retries", llm.DefaultMaxRetries)
	viper.SetDefault("ai.timeout", llm.DefaultTimeout)

	viper.SetDefault("analysis.batch_size", types.DefaultBatchSize)
	viper.SetDefault("analysis.max_text_chars", types.DefaultMaxTextChars)
	viper.SetDefault("analysis.batch_delay", time.Duration(0))
	viper.SetDefault("analysis.strict_rejections", false)

	viper.SetDefault("rank.weights.importance", types.DefaultWeights.Importance)
	viper.SetDefault("rank.weights.checkability", types.DefaultWeights.Checkability)
	viper.SetDefault("rank.weights.engagement", types.DefaultWeights.Engagement)
	viper.SetDefault("rank.engagement_basis", string(types.BasisRetweets))
	viper.SetDefault("rank.min_retweets", 25)
	viper.SetDefault("rank.threshold_before_scoring", false)
	viper.SetDefault("rank.threshold_after_ranking", false)

	viper.SetDefault("export.dir", ".")
	viper.SetDefault("export.name", export.DefaultName)
	viper.SetDefault("export.format", "")
}

// bindFlags binds the named flags of cmd to config keys. Commands that share
// a key bind it when they run, so the running command's flag wins.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig decodes the merged configuration and validates it.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Fetch.Pages > types.MaxPages {
		return cfg, fmt.Errorf("fetch.pages must be at most %d, got %d", types.MaxPages, cfg.Fetch.Pages)
	}
	if err := rank.Validate(cfg.Rank); err != nil {
		return cfg, err
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = loadedSecrets.Anthropic()
	}
	return cfg, nil
}

// openStore opens the run database named by store.path.
func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("store.path"))
}
