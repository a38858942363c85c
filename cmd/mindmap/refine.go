package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agenthands/mindmap/internal/core"
	"github.com/agenthands/mindmap/internal/mindmap"
)

var refineCmd = &cobra.Command{
	Use:   "refine <theme> <seed-file>",
	Short: "Refine a previously saved mind map with a second pass",
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

		focus, _ := cmd.Flags().GetString("focus")
		mapType, _ := cmd.Flags().GetString("map-type")
		context, _ := cmd.Flags().GetString("context")
		outcome, err := gen.Refined(cmd.Context(), core.Request{
			MainTheme: args[0],
			Focus:     focus,
			MapType:   mapType,
			Context:   context,
		}, seed)
		if err != nil {
			return err
		}

		if outcome.RefinementFailed {
			fmt.Println("refinement failed, keeping the seed tree")
		}
		fmt.Print(outcome.Tree.String())

		outDir, _ := cmd.Flags().GetString("output-dir")
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if outDir != "" {
			filename, _ := cmd.Flags().GetString("output")
			if err := mindmap.SaveTree(outDir, filename, outcome.Tree); err != nil {
				return err
			}
			fmt.Printf("saved to %s/%s\n", outDir, filename)
		}
		return nil
	},
}

func init() {
	refineCmd.Flags().String("focus", "", "optional narrowing angle")
	refineCmd.Flags().String("map-type", "theme", "template key: theme or risk")
	refineCmd.Flags().String("context", "", "extra context to fold into the refinement")
	refineCmd.Flags().String("output-dir", "", "directory to save the refined tree")
	refineCmd.Flags().String("output", "refined_mindmap.json", "output filename")

	rootCmd.AddCommand(refineCmd)
}
