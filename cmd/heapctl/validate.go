package main

import (
	"github.com/spf13/cobra"

	"github.com/heapkit/heapkit/internal/trace"
)

var validateEncoding string

func init() {
	cmd := newValidateCmd()
	cmd.Flags().StringVar(&validateEncoding, "encoding", "", "Trace file encoding (utf-8, utf-16le, windows-1252)")
	rootCmd.AddCommand(cmd)
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <trace-file>",
		Short: "Parse a trace file without executing it",
		Long: `The validate command parses a trace file and reports its operation
counts, without touching a heap. Use it to check trace syntax before a run.

Example:
  heapctl validate workload.trace
  heapctl validate workload.trace --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
	return cmd
}

func runValidate(args []string) error {
	path := args[0]

	printVerbose("Parsing trace: %s\n", path)
	ops, err := trace.ParseFile(path, validateEncoding)

	result := map[string]interface{}{
		"file":  path,
		"valid": err == nil,
	}
	if err != nil {
		result["error"] = err.Error()
	} else {
		counts := map[string]int{}
		for _, op := range ops {
			counts[string(op.Kind)]++
		}
		result["operations"] = len(ops)
		result["allocs"] = counts["a"]
		result["reallocs"] = counts["r"]
		result["frees"] = counts["f"]
	}

	if jsonOut {
		if jerr := printJSON(result); jerr != nil {
			return jerr
		}
		return err
	}
	if err != nil {
		return err
	}
	printInfo("trace:      %s\n", path)
	printInfo("operations: %d (%d allocs, %d reallocs, %d frees)\n",
		len(ops), result["allocs"], result["reallocs"], result["frees"])
	return nil
}
