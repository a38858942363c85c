package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/mindmap/internal/core"
	"github.com/agenthands/mindmap/internal/mindmap"
)

var generateCmd = &cobra.Command{
	Use:   "generate <theme>",
	Short: "Generate a mind map in one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := newGenerator(cmd)
		if err != nil {
			return err
		}

		focus, _ := cmd.Flags().GetString("focus")
		mapType, _ := cmd.Flags().GetString("map-type")
		outcome, err := gen.OneShot(cmd.Context(), core.Request{
			MainTheme: args[0],
			Focus:     focus,
			MapType:   mapType,
		})
		if err != nil {
			return err
		}

		fmt.Print(outcome.Tree.String())
		for _, w := range outcome.Report.Warnings {
			fmt.Printf("warning: %s\n", w)
		}

		outDir, _ := cmd.Flags().GetString("output-dir")
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if outDir != "" {
			filename, _ := cmd.Flags().GetString("output")
			if filename == "" {
				filename = "mindmap.json"
			}
			if err := mindmap.SaveTree(outDir, filename, outcome.Tree); err != nil {
				return err
			}
			fmt.Printf("saved to %s/%s\n", outDir, filename)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("focus", "", "optional narrowing angle for the decomposition")
	generateCmd.Flags().String("map-type", "theme", "template key: theme or risk")
	generateCmd.Flags().String("output-dir", "", "directory to save the generated tree")
	generateCmd.Flags().String("output", "mindmap.json", "output filename")

	rootCmd.AddCommand(generateCmd)
}
