package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/mindmap/internal/core"
	"github.com/agenthands/mindmap/internal/mindmap"
)

var dynamicCmd = &cobra.Command{
	Use:   "dynamic <theme> <interval>...",
	Short: "Generate a time-evolving series, one tree per interval",
	Long: `Dynamic generation produces one mind map per named interval. Each
interval refines the last successfully produced tree; a failed interval is
recorded in the series without halting the ones after it.

An interval argument is either a bare name ("2024") or name=context
("2024=grid storage became cost-competitive") to feed new information
into that interval's refinement.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := newGenerator(cmd)
		if err != nil {
			return err
		}

		intervals := make([]core.Interval, 0, len(args)-1)
		for _, arg := range args[1:] {
			name, context, _ := strings.Cut(arg, "=")
			intervals = append(intervals, core.Interval{Name: name, Context: context})
		}

		focus, _ := cmd.Flags().GetString("focus")
		mapType, _ := cmd.Flags().GetString("map-type")
		series, err := gen.Dynamic(cmd.Context(), core.Request{
			MainTheme: args[0],
			Focus:     focus,
			MapType:   mapType,
		}, nil, intervals)
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("output-dir")
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if outDir == "" {
			outDir = "./dynamic_mindmaps"
		}

		entries := make([]mindmap.SeriesEntry, 0, len(series.Entries))
		for _, e := range series.Entries {
			entry := mindmap.SeriesEntry{Interval: e.Interval}
			switch {
			case e.Outcome.Err != nil:
				entry.Error = e.Outcome.Err.Error()
				fmt.Printf("%s: failed: %v\n", e.Interval, e.Outcome.Err)
			case e.Outcome.RefinementFailed:
				entry.Tree = e.Outcome.Tree
				entry.Error = "refinement failed, carried prior tree"
				fmt.Printf("%s: refinement failed\n", e.Interval)
			default:
				entry.Tree = e.Outcome.Tree
				fmt.Printf("%s: %d nodes\n", e.Interval, e.Outcome.Tree.Count())
			}
			if entry.Tree != nil {
				filename := fmt.Sprintf("mindmap_%s.json", e.Interval)
				if err := mindmap.SaveTree(outDir, filename, entry.Tree); err != nil {
					return err
				}
			}
			entries = append(entries, entry)
		}

		if err := mindmap.SaveSeries(outDir, "series.json", entries); err != nil {
			return err
		}
		fmt.Printf("saved series to %s/series.json\n", outDir)
		return nil
	},
}

func init() {
	dynamicCmd.Flags().String("focus", "", "optional narrowing angle")
	dynamicCmd.Flags().String("map-type", "theme", "template key: theme or risk")
	dynamicCmd.Flags().String("output-dir", "", "directory to save the series")

	rootCmd.AddCommand(dynamicCmd)
}
