package serial_test

import (
	"testing"

	"github.com/ledgerframe/txscheduler/contextmgr"
	"github.com/ledgerframe/txscheduler/scheduler"
	"github.com/ledgerframe/txscheduler/scheduler/serial"
	schedtests "github.com/ledgerframe/txscheduler/scheduler/tests"
)

func TestSerialScheduler(t *testing.T) {
	schedtests.SchedulerImplementationTests(t, func(ctxLifecycle contextmgr.ContextLifecycle, stateID string) (scheduler.Scheduler, error) {
		return serial.New(ctxLifecycle, stateID)
	})
}
