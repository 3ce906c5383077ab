package main

import (
	"sort"

	"github.com/joshuapare/scopekit/profile"
	"github.com/spf13/cobra"
)

var mergeOut string

func init() {
	cmd := newMergeCmd()
	cmd.Flags().StringVarP(&mergeOut, "out", "o", "merged.profile", "Output profile path")
	rootCmd.AddCommand(cmd)
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <profile>...",
		Short: "Merge allocation profiles, keeping the maximum per factory",
		Long: `The merge command combines profiles from several runs into one.
For each factory the largest count and capacity across the inputs is kept,
so the merged profile covers the worst observed workload.

Example:
  scopeprof merge run1.profile run2.profile -o alloc.profile`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(args)
		},
	}
}

func runMerge(args []string) error {
	merged := make(map[string]profile.Entry)
	for _, path := range args {
		printVerbose("Reading profile: %s\n", path)
		entries, err := parseFile(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			m := merged[e.Factory]
			m.Factory = e.Factory
			if e.Count > m.Count {
				m.Count = e.Count
			}
			if e.Capacity > m.Capacity {
				m.Capacity = e.Capacity
			}
			merged[e.Factory] = m
		}
	}

	out := make([]profile.Entry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Factory < out[j].Factory })

	if err := writeProfile(mergeOut, out); err != nil {
		return err
	}
	printInfo("Wrote %d entries to %s\n", len(out), mergeOut)
	return nil
}
