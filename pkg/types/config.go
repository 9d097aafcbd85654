// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "content-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StoreConfig holds settings for the remote tabular store.
type StoreConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the store API root (default "https://api.airtable.com/v0").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// BaseID identifies the workspace base holding all collections.
	BaseID string `json:"base_id" yaml:"base_id"`

	// APIKey authenticates store requests.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries bounds rate-limit retries per request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for components that call the
// text-generation service.
type AIConfig struct {
	// Model is the generation model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EmbeddingConfig holds settings for the embedding service.
type EmbeddingConfig struct {
	// Model is the embedding model identifier
	// (e.g. "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the embedding API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// TopK is the number of reference records to retrieve (default 5).
	TopK int `json:"top_k" yaml:"top_k"`
}

// GenerationConfig holds settings for draft output handling.
type GenerationConfig struct {
	// OutputDir is the directory where finished drafts are exported as
	// YAML (e.g. "output/drafts/"). Empty disables export.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// TrendsConfig holds settings for the trend-signal collection.
type TrendsConfig struct {
	// Collection is the store collection holding trend signals
	// (default "trend_signals").
	Collection string `json:"collection" yaml:"collection"`

	// Retention is how long signals are kept before pruning
	// (default 10 days).
	Retention time.Duration `json:"retention" yaml:"retention"`
}

// PipelineConfig groups all component configurations plus the standing brief.
type PipelineConfig struct {
	Store      StoreConfig      `json:"store" yaml:"store"`
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Trends     TrendsConfig     `json:"trends" yaml:"trends"`

	// Brief is the standing content request used when the caller does not
	// supply one.
	Brief Brief `json:"brief" yaml:"brief"`

	// RunLogPath is the directory holding the local run journal database.
	// Empty disables the run log.
	RunLogPath string `json:"run_log_path" yaml:"run_log_path"`
}
