// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/internal/backlog"
	"github.com/pdiddy/content-engine/internal/genai"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/rank"
	"github.com/pdiddy/content-engine/internal/runlog"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one article generation and persist the draft to the backlog",
	Long: `Generate executes one full pipeline run: plan data needs, select catalog
segments and keywords, retrieve reference Q&A by embedding similarity,
synthesize the draft, and write it to the content backlog with status "draft".

Without --brief the standing brief from configuration is used. The finished
draft is printed as JSON and, if an output directory is configured, also
exported as a YAML file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		if text, _ := cmd.Flags().GetString("brief"); text != "" {
			cfg.Brief.Text = text
		}

		p, journal, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close()
		}

		item, err := p.Run(cmd.Context(), cfg.Brief, os.Stderr)
		if err != nil {
			// A publish failure still carries the finished draft; print it
			// so the run's work is not lost.
			var pubErr *backlog.PublishError
			if errors.As(err, &pubErr) {
				fmt.Fprintln(os.Stderr, "warning: draft synthesized but not persisted")
				printDraft(pubErr.Draft)
			}
			return err
		}

		printDraft(item.ArticleDraft)
		if cfg.Generation.OutputDir != "" {
			path, err := exportDraft(cfg.Generation.OutputDir, item)
			if err != nil {
				return fmt.Errorf("exporting draft: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Draft exported to", path)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("brief", "", "content brief overriding the configured standing brief")

	rootCmd.AddCommand(generateCmd)
}

// buildPipeline wires the store client, generation backend, embedder, and
// optional run journal from configuration.
func buildPipeline(cfg types.PipelineConfig) (*pipeline.Pipeline, *runlog.Journal, error) {
	var journal *runlog.Journal
	if cfg.RunLogPath != "" {
		j, err := runlog.Open(cfg.RunLogPath)
		if err != nil {
			return nil, nil, err
		}
		journal = j
	}

	opts := pipeline.Options{
		Trends:     cfg.Trends,
		TopK:       cfg.Embedding.TopK,
		MaxRetries: cfg.AI.MaxRetries,
	}
	if journal != nil {
		opts.Journal = journal
	}

	p := pipeline.New(
		store.NewClient(cfg.Store),
		genai.NewOpenAIBackend(cfg.AI),
		rank.NewOpenAIEmbedder(cfg.Embedding),
		opts,
	)
	return p, journal, nil
}

func printDraft(draft types.ArticleDraft) {
	out, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		fmt.Println(draft.Title)
		return
	}
	fmt.Println(string(out))
}

// exportDraft writes the backlog item as YAML into the output directory,
// named by date and a slug of the title.
func exportDraft(dir string, item types.BacklogItem) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s-%s.yaml", time.Now().Format("2006-01-02"), slugify(item.Title))
	path := filepath.Join(dir, name)

	data, err := yaml.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("marshaling draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
