package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profile>",
		Short: "Check an allocation profile for syntax errors",
		Long: `The validate command parses an allocation profile and reports the
first syntax error, if any.

Example:
  scopeprof validate alloc.profile
  scopeprof validate alloc.profile --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
}

func runValidate(args []string) error {
	path := args[0]
	printVerbose("Validating profile: %s\n", path)

	entries, err := parseFile(path)

	result := map[string]interface{}{
		"file":  path,
		"valid": err == nil,
	}
	if err != nil {
		result["error"] = err.Error()
	} else {
		result["entries"] = len(entries)
	}

	if jsonOut {
		if jerr := printJSON(result); jerr != nil {
			return jerr
		}
	} else if err != nil {
		printInfo("%s: INVALID: %v\n", path, err)
	} else {
		printInfo("%s: OK (%d entries)\n", path, len(entries))
	}
	return err
}
