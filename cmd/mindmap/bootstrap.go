package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agenthands/mindmap/internal/core"
	"github.com/agenthands/mindmap/internal/mindmap"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap <theme> <seed-file>",
	Short: "Refine a seed tree N times in parallel and keep every variant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := newGenerator(cmd)
		if err != nil {
			return err
		}

		seedDir, seedFile := filepath.Split(args[1])
		if seedDir == "" {
			seedDir = "."
		}
		seed, err := mindmap.LoadTree(seedDir, seedFile)
		if err != nil {
			return err
		}

		variants, _ := cmd.Flags().GetInt("variants")
		focus, _ := cmd.Flags().GetString("focus")
		mapType, _ := cmd.Flags().GetString("map-type")
		outcomes, err := gen.Bootstrap(cmd.Context(), core.Request{
			MainTheme: args[0],
			Focus:     focus,
			MapType:   mapType,
		}, seed, variants)
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("output-dir")
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if outDir == "" {
			outDir = "./bootstrap_mindmaps"
		}
		for i, o := range outcomes {
			if o.Err != nil {
				fmt.Printf("variant %d: failed: %v\n", i, o.Err)
				continue
			}
			filename := fmt.Sprintf("variant_%d.json", i)
			if err := mindmap.SaveTree(outDir, filename, o.Tree); err != nil {
				return err
			}
			fmt.Printf("variant %d: %d nodes, saved to %s/%s\n", i, o.Tree.Count(), outDir, filename)
		}
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().Int("variants", 3, "number of parallel refinement variants")
	bootstrapCmd.Flags().String("focus", "", "optional narrowing angle")
	bootstrapCmd.Flags().String("map-type", "theme", "template key: theme or risk")
	bootstrapCmd.Flags().String("output-dir", "", "directory to save the variants")

	rootCmd.AddCommand(bootstrapCmd)
}
