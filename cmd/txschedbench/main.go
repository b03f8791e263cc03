// Command txschedbench drives a scheduler instance with a synthetic xo
// workload, reporting batch throughput and exposing Prometheus metrics,
// for load-testing and local experimentation against scheduler variants.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/ledgerframe/txscheduler/logging"
)

var logger = logging.GetLogger("cmd/txschedbench")

var (
	cfgBatches     int
	cfgBatchSize   int
	cfgSeed        string
	cfgStateID     string
	cfgMetricsAddr string
)

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "txschedbench",
		Short: "Drive a transaction scheduler with a synthetic xo workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context())
		},
	}

	var flags *flag.FlagSet = root.Flags()
	flags.IntVar(&cfgBatches, "batches", 100, "number of batches to submit before finalizing")
	flags.IntVar(&cfgBatchSize, "batch-size", 4, "number of transactions per batch")
	flags.StringVar(&cfgSeed, "seed", "txschedbench", "deterministic workload seed")
	flags.StringVar(&cfgStateID, "state-id", "bench", "state tree id passed to the context manager")
	flags.StringVar(&cfgMetricsAddr, "metrics-addr", "127.0.0.1:9464", "address to serve Prometheus metrics on; empty disables it")
	flags.SortFlags = false

	return root
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		logger.Error("fatal", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
