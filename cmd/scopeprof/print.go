package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPrintCmd())
}

func newPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print <profile>",
		Short: "Print the entries of an allocation profile",
		Long: `The print command parses an allocation profile and prints its
entries sorted by factory name.

Example:
  scopeprof print alloc.profile
  scopeprof print alloc.profile --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(args)
		},
	}
}

func runPrint(args []string) error {
	path := args[0]
	printVerbose("Reading profile: %s\n", path)

	entries, err := parseFile(path)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Factory < entries[j].Factory })

	if jsonOut {
		return printJSON(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FACTORY\tCOUNT\tCAPACITY")
	for _, e := range entries {
		if e.Capacity > 0 {
			fmt.Fprintf(w, "%s\t%d\t%d\n", e.Factory, e.Count, e.Capacity)
		} else {
			fmt.Fprintf(w, "%s\t%d\t-\n", e.Factory, e.Count)
		}
	}
	return w.Flush()
}
