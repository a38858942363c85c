// Package main is the entry point for the mindmap CLI: one-shot, refined
// and dynamic generation written to files.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/mindmap/internal/config"
	"github.com/agenthands/mindmap/internal/core"
	"github.com/agenthands/mindmap/internal/llm"
)

var (
	logger  *zap.Logger
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "mindmap",
	Short: "Decompose a topic into a hierarchical mind map using an LLM",
	Long: `mindmap orchestrates LLM calls to decompose a topic into a tree of
sub-themes. It supports one-shot generation, two-stage refinement,
parallel bootstrap variants, and sequential time-evolving series.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		var err error
		logger, err = zap.NewDevelopment()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newGenerator builds the generation stack from the config file, a model
// spec flag, or both. The spec flag wins over the file.
func newGenerator(cmd *cobra.Command) (*core.Generator, *config.Config, error) {
	cfg := &config.Config{}
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	if spec, _ := cmd.Flags().GetString("model"); spec != "" {
		provider, model, err := llm.ParseSpec(spec)
		if err != nil {
			return nil, nil, err
		}
		cfg.LLM.Base.Provider = provider
		cfg.LLM.Base.Model = model
	}
	if spec, _ := cmd.Flags().GetString("reasoning-model"); spec != "" {
		provider, model, err := llm.ParseSpec(spec)
		if err != nil {
			return nil, nil, err
		}
		cfg.LLM.Reasoning.Provider = provider
		cfg.LLM.Reasoning.Model = model
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		if cfg.LLM.Base.APIKey == "" {
			cfg.LLM.Base.APIKey = apiKey
		}
		if cfg.LLM.Reasoning.APIKey == "" {
			cfg.LLM.Reasoning.APIKey = apiKey
		}
	}
	if cfg.LLM.Reasoning.Provider == "" {
		cfg.LLM.Reasoning = cfg.LLM.Base
	}

	gen, err := core.NewFromConfig(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return gen, cfg, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml")
	rootCmd.PersistentFlags().String("model", "", "base model spec, e.g. openai::gpt-4o-mini")
	rootCmd.PersistentFlags().String("reasoning-model", "", "reasoning model spec used for refinement")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
