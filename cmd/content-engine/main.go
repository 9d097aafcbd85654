// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the content-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// defaultBrief is the standing content request used when the caller does
// not supply one: a renovation article for the brand's blog, guidance
// first, products second.
var defaultBrief = types.Brief{
	Text: "Write a blog article on a renovation topic featuring at least one " +
		"product line from the catalog. The article comes first, the products " +
		"second: it must read as genuinely useful renovation guidance, not an " +
		"advertisement. Write in English.",
	Locale:   "en",
	Audience: "home renovators",
}

// rootCmd is the base command for the content-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "content-engine",
	Short: "Retrieval-augmented article generation for the content backlog",
	Long: `content-engine turns a content brief into a grounded, de-duplicated
article draft: it plans which data sources the brief needs, selects catalog
segments and search keywords under a novelty constraint against the published
backlog, retrieves reference Q&A by embedding similarity, synthesizes the
draft, and persists it to the backlog store.

Run one generation with "generate", expose an HTTP trigger with "serve", and
age out stale trend signals with "trends prune".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; missing files are fine.
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./content-engine.yaml or ~/.config/content-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("content-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "content-engine"))
		}
	}

	viper.SetEnvPrefix("CONTENT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the full configuration from the config file,
// environment overrides, and loaded secrets.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Store: types.StoreConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("store.timeout"),
				UserAgent: "content-engine/" + version,
			},
			BaseURL:    viper.GetString("store.base_url"),
			BaseID:     secretDefault("store-base-id", viper.GetString("store.base_id")),
			APIKey:     secretDefault("store-api-key", viper.GetString("store.api_key")),
			MaxRetries: viper.GetInt("store.max_retries"),
		},
		AI: types.AIConfig{
			Model:      viper.GetString("ai.model"),
			APIKey:     secretDefault("openai-api-key", viper.GetString("ai.api_key")),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
		Embedding: types.EmbeddingConfig{
			Model:  viper.GetString("embedding.model"),
			APIKey: secretDefault("openai-api-key", viper.GetString("embedding.api_key")),
			TopK:   viper.GetInt("embedding.top_k"),
		},
		Generation: types.GenerationConfig{
			OutputDir: viper.GetString("generation.output_dir"),
		},
		Trends: types.TrendsConfig{
			Collection: viper.GetString("trends.collection"),
			Retention:  viper.GetDuration("trends.retention"),
		},
		Brief:      defaultBrief,
		RunLogPath: viper.GetString("run_log_path"),
	}

	if text := viper.GetString("brief.text"); text != "" {
		cfg.Brief.Text = text
	}
	if locale := viper.GetString("brief.locale"); locale != "" {
		cfg.Brief.Locale = locale
	}
	if audience := viper.GetString("brief.audience"); audience != "" {
		cfg.Brief.Audience = audience
	}
	if cfg.Trends.Retention == 0 {
		cfg.Trends.Retention = 10 * 24 * time.Hour
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
