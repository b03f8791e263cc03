package serial

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledgerframe/txscheduler/logging"
)

var (
	batchesActivatedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txscheduler_serial_batches_activated_total",
		Help: "Number of batches moved from the unscheduled queue into the active slot.",
	})
	batchesCompletedCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txscheduler_serial_batches_completed_total",
			Help: "Number of batches that produced a BatchExecutionResult, by outcome.",
		},
		[]string{"outcome"},
	)
	tasksDispatchedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txscheduler_serial_tasks_dispatched_total",
		Help: "Number of ExecutionTasks sent on the task channel.",
	})
	unexpectedNotificationCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txscheduler_serial_unexpected_notifications_total",
		Help: "Number of completion notifications rejected because they did not match the dispatched transaction.",
	})
	contextsCreatedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txscheduler_serial_contexts_created_total",
		Help: "Number of state-isolation contexts created.",
	})
	contextsDroppedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txscheduler_serial_contexts_dropped_total",
		Help: "Number of state-isolation contexts dropped.",
	})
	batchProcessingTime = prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "txscheduler_serial_batch_processing_seconds",
		Help: "Time from batch activation to its BatchExecutionResult being emitted.",
	})
	unscheduledQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "txscheduler_serial_unscheduled_queue_depth",
		Help: "Number of batches currently waiting to be activated.",
	})

	collectors = []prometheus.Collector{
		batchesActivatedCount,
		batchesCompletedCount,
		tasksDispatchedCount,
		unexpectedNotificationCount,
		contextsCreatedCount,
		contextsDroppedCount,
		batchProcessingTime,
		unscheduledQueueDepth,
	}

	metricsOnce sync.Once
)

// registerMetrics registers this package's collectors with the default
// Prometheus registry exactly once, mirroring the teacher's
// metricsOnce.Do(prometheus.MustRegister(...)) pattern. Safe to call from
// every scheduler instance's constructor.
func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(collectors...)
	})
}

var pkgLoggerOnce sync.Once
var pkgLogger *logging.Logger

func getPackageLogger() *logging.Logger {
	pkgLoggerOnce.Do(func() {
		pkgLogger = logging.GetLogger("scheduler/serial")
	})
	return pkgLogger
}
