package coordinator

import (
	"time"

	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Recorder receives cycle measurements. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CycleStarted()
	AxisSettled(axis metrics.Axis, d time.Duration, err error)
	StaleDiscarded(axis metrics.Axis)
	CycleFinished(state State, d time.Duration)
	ViewPublished(view merger.View)
}

type nopRecorder struct{}

func (nopRecorder) CycleStarted()                                 {}
func (nopRecorder) AxisSettled(metrics.Axis, time.Duration, error) {}
func (nopRecorder) StaleDiscarded(metrics.Axis)                    {}
func (nopRecorder) CycleFinished(State, time.Duration)             {}
func (nopRecorder) ViewPublished(merger.View)                      {}
