package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/osmem/heap"
	"github.com/vkngwrapper/osmem/memutils"
	"github.com/vkngwrapper/osmem/sysmem"
	"golang.org/x/exp/slog"
)

var (
	// Global flags
	threshold int
	pageSize  int
	jsonOut   bool
	simulated bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "heaptrace [trace]",
	Short: "Replay an allocation trace against a fresh heap",
	Long: `heaptrace reads an allocation trace, one operation per line, replays it
against a new allocator and prints the resulting heap statistics.

Trace lines:
  malloc <id> <size>
  calloc <id> <count> <size>
  realloc <id> <newid> <size>   (an id of - resizes a null pointer)
  free <id>
  # comment

With no trace argument the trace is read from standard input.

Example:
  heaptrace workload.trace
  heaptrace workload.trace --threshold 65536 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrace(cmd.OutOrStdout(), cmd.InOrStdin(), args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", heap.DefaultMmapThreshold, "Largest request, header included, served from the arena")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", heap.DefaultPageSize, "Zeroed requests at or above this size get a fresh mapping")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print the heap map as JSON")
	rootCmd.PersistentFlags().BoolVar(&simulated, "simulated", false, "Back the heap with Go memory instead of OS mappings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every allocator operation to stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}

	return slog.New(slog.HandlerOptions{Level: slog.LevelDebug}.NewTextHandler(os.Stderr))
}

func runTrace(out io.Writer, in io.Reader, args []string) error {
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to open trace %s", args[0])
		}
		defer file.Close()
		in = file
	}

	ops, err := parseTrace(in)
	if err != nil {
		return err
	}

	var grants sysmem.Grants
	if simulated {
		grants = sysmem.NewSimulatedGrants(sysmem.SimulatedOptions{})
	} else {
		grants = sysmem.NewSystemGrants()
	}
	if closer, ok := grants.(io.Closer); ok {
		defer closer.Close()
	}

	allocator, err := heap.New(newLogger(), grants, heap.CreateOptions{
		MmapThreshold: threshold,
		PageSize:      pageSize,
	})
	if err != nil {
		return err
	}

	r := newReplayer(allocator)
	err = r.run(ops)
	if err != nil {
		return err
	}

	err = allocator.Validate()
	if err != nil {
		return errors.Wrap(err, "heap is inconsistent after replay")
	}

	if jsonOut {
		fmt.Fprintln(out, allocator.BuildStatsString(true))
	} else {
		printSummary(out, allocator, r)
	}

	r.releaseAll()
	return nil
}

func printSummary(out io.Writer, allocator *heap.Allocator, r *replayer) {
	var stats memutils.DetailedStatistics
	allocator.CalculateStatistics(&stats)

	var budget sysmem.Budget
	allocator.HeapBudget(&budget)

	fmt.Fprintf(out, "Operations: %d\n", r.opCount)
	fmt.Fprintf(out, "Arena:      %s\n", humanize.Bytes(uint64(budget.ArenaBytes)))
	fmt.Fprintf(out, "Mappings:   %d (%s)\n", budget.MappingCount, humanize.Bytes(uint64(budget.MappingBytes)))
	fmt.Fprintf(out, "Live:       %d allocations, %s\n", stats.AllocationCount, humanize.Bytes(uint64(stats.AllocationBytes)))
	fmt.Fprintf(out, "Headers:    %s (%.1f%% overhead)\n", humanize.Bytes(uint64(stats.HeaderBytes)), stats.Overhead()*100)
	fmt.Fprintf(out, "Free:       %d ranges, %s\n", stats.UnusedRangeCount, humanize.Bytes(uint64(stats.UnusedRangeBytes)))
	if stats.UnusedRangeCount > 0 {
		fmt.Fprintf(out, "            largest %s, smallest %s, fragmentation %.2f\n",
			humanize.Bytes(uint64(stats.UnusedRangeSizeMax)),
			humanize.Bytes(uint64(stats.UnusedRangeSizeMin)),
			stats.Fragmentation())
	}

	leaked := r.liveIDs()
	if len(leaked) > 0 {
		fmt.Fprintf(out, "Unreleased: %v\n", leaked)
	}
}
