package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heapkit/heapkit/heap/alloc"
	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/heap/verify"
	"github.com/heapkit/heapkit/internal/trace"
)

var (
	runCheck    bool
	runNoFree   bool
	runMmap     bool
	runLimit    int
	runDump     bool
	runEncoding string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runCheck, "check", false, "Verify heap consistency after every operation")
	cmd.Flags().BoolVar(&runNoFree, "no-free", false, "Suppress frees to measure placement without reuse")
	cmd.Flags().BoolVar(&runMmap, "mmap", false, "Back the heap with a mapped reservation instead of a slice")
	cmd.Flags().IntVar(&runLimit, "limit", 1<<30, "Maximum heap size in bytes")
	cmd.Flags().BoolVar(&runDump, "dump", false, "Dump final heap layout and free lists")
	cmd.Flags().StringVar(&runEncoding, "encoding", "", "Trace file encoding (utf-8, utf-16le, windows-1252)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <trace-file>",
		Short: "Replay a workload trace against a fresh heap",
		Long: `The run command replays a trace file against a fresh heap and reports
operation and allocator statistics.

Example:
  heapctl run workload.trace
  heapctl run workload.trace --check --dump
  heapctl run workload.trace --no-free --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(args[0])
		},
	}
}

// RunReport is the printable outcome of a replay.
type RunReport struct {
	Trace     string
	Ops       int
	Live      int
	MaxLive   int
	HeapBytes int
	Stats     alloc.Stats
}

func newArena() (mem.Arena, error) {
	if runMmap {
		return mem.NewMmap(runLimit)
	}
	if runLimit > 0 {
		return mem.NewSliceLimit(runLimit), nil
	}
	return mem.NewSlice(), nil
}

func runTrace(path string) error {
	printVerbose("Parsing trace: %s\n", path)
	ops, err := trace.ParseFile(path, runEncoding)
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations\n", len(ops))

	arena, err := newArena()
	if err != nil {
		return fmt.Errorf("failed to create arena: %w", err)
	}
	a, err := alloc.New(arena)
	if err != nil {
		return fmt.Errorf("failed to create heap: %w", err)
	}
	defer a.Close()

	var h alloc.Heap = a
	if runNoFree {
		h = alloc.NoFree{Allocator: a}
	}

	rn := &trace.Runner{Heap: h}
	if runCheck {
		rn.Check = func(op trace.Op) error {
			if issues := verify.Heap(a, verify.Options{}); len(issues) > 0 {
				for _, is := range issues {
					printError("%s\n", is)
				}
				return fmt.Errorf("%d consistency issue(s)", len(issues))
			}
			return nil
		}
	}

	sum, err := rn.Run(ops)
	if err != nil {
		return err
	}

	if runDump {
		verify.Dump(a, os.Stdout)
	}

	report := RunReport{
		Trace:     path,
		Ops:       sum.Ops,
		Live:      sum.Live,
		MaxLive:   sum.MaxLive,
		HeapBytes: a.Region().Size(),
		Stats:     a.Stats(),
	}
	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func printReport(r RunReport) {
	printInfo("trace:          %s\n", r.Trace)
	printInfo("operations:     %d (%d live at end, %d peak)\n", r.Ops, r.Live, r.MaxLive)
	printInfo("heap size:      %d bytes\n", r.HeapBytes)
	printInfo("allocs:         %d (%d bytes)\n", r.Stats.AllocCalls, r.Stats.BytesAllocated)
	printInfo("frees:          %d (%d bytes)\n", r.Stats.FreeCalls, r.Stats.BytesFreed)
	printInfo("reallocs:       %d (%d in place, %d moved)\n",
		r.Stats.ReallocCalls, r.Stats.ReallocInPlace, r.Stats.ReallocMoves)
	printInfo("splits:         %d\n", r.Stats.SplitCount)
	printInfo("coalesces:      %d forward, %d backward\n",
		r.Stats.CoalesceForward, r.Stats.CoalesceBackward)
	printInfo("growth:         %d extensions, %d bytes\n", r.Stats.GrowCalls, r.Stats.GrowBytes)
}
