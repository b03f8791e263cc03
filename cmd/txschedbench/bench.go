package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerframe/txscheduler/contextmgr"
	"github.com/ledgerframe/txscheduler/scheduler"
	"github.com/ledgerframe/txscheduler/scheduler/serial"
	"github.com/ledgerframe/txscheduler/workload/xo"
)

// runBench submits cfgBatches batches of cfgBatchSize transactions each,
// generated deterministically from cfgSeed, into a serial scheduler, and
// logs throughput once every submitted batch has a result. A stub
// executor drains the task iterator and reports every transaction Valid:
// this harness measures scheduling overhead, not execution cost.
func runBench(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfgMetricsAddr != "" {
		ln, err := listenWithBackoff(cfgMetricsAddr)
		if err != nil {
			return err
		}
		go serveMetrics(ln)
		logger.Info("serving metrics", "addr", cfgMetricsAddr)
	}

	ctxMgr := contextmgr.NewInMemory()
	sched, err := serial.New(ctxMgr, cfgStateID)
	if err != nil {
		return err
	}
	defer sched.Shutdown()

	var mu sync.Mutex
	completed := 0
	invalidCount := 0
	done := make(chan struct{})

	if err := sched.SetResultCallback(func(result *scheduler.BatchExecutionResult) {
		mu.Lock()
		defer mu.Unlock()
		if result == nil {
			close(done)
			return
		}
		completed++
		for _, r := range result.Results {
			if !r.IsValid() {
				invalidCount++
			}
		}
	}); err != nil {
		return err
	}

	if err := sched.SetErrorCallback(func(schedErr *scheduler.Error) {
		logger.Error("scheduler error", "err", schedErr)
	}); err != nil {
		return err
	}

	it, err := sched.TakeTaskIterator()
	if err != nil {
		return err
	}
	notifier, err := sched.NewNotifier()
	if err != nil {
		return err
	}
	go driveExecutor(ctx, it, notifier)

	gen := xo.NewBatchGenerator([]byte(cfgSeed), cfgBatchSize)
	start := time.Now()
	for i := 0; i < cfgBatches; i++ {
		b, err := gen.NextBatch()
		if err != nil {
			return err
		}
		if err := sched.AddBatch(b); err != nil {
			return err
		}
	}
	if err := sched.Finalize(); err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	elapsed := time.Since(start)

	mu.Lock()
	defer mu.Unlock()
	logger.Info("bench complete",
		"batches", completed,
		"invalid_transactions", invalidCount,
		"elapsed", elapsed,
		"batches_per_sec", float64(completed)/elapsed.Seconds(),
	)
	return nil
}

// driveExecutor is the stub executor: it pulls every task as it becomes
// available and immediately reports it Valid, so the only thing under
// measurement is scheduling overhead.
func driveExecutor(ctx context.Context, it *scheduler.TaskIterator, notifier scheduler.ExecutionTaskCompletionNotifier) {
	for {
		task, ok := it.Next(ctx)
		if !ok {
			return
		}
		notifier.Notify(scheduler.ValidNotification(task.ContextID(), task.Pair().HeaderSignature()))
	}
}

// listenWithBackoff opens addr with a short exponential backoff, since a
// just-restarted harness may still be waiting for the OS to release the
// previous instance's socket.
func listenWithBackoff(addr string) (net.Listener, error) {
	var ln net.Listener
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err := backoff.Retry(func() error {
		var err error
		ln, err = net.Listen("tcp", addr)
		return err
	}, b)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func serveMetrics(ln net.Listener) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.Serve(ln, mux); err != nil {
		logger.Error("metrics server stopped", "err", err)
	}
}
