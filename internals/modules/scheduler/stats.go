package scheduler

import (
	"sync"
	"time"

	"github.com/darwin-luque/uptime-monitor/internals/modules/result"
	"github.com/darwin-luque/uptime-monitor/internals/modules/rotation"
)

// Stats is a point-in-time view of the scheduler, served on /status.
type Stats struct {
	LastCycleAt   time.Time         `json:"last_cycle_at"`
	LastCycleOK   bool              `json:"last_cycle_ok"`
	ChecksListed  int               `json:"checks_listed"`
	ChecksSkipped int               `json:"checks_skipped"`
	InFlight      int               `json:"in_flight"`
	Executed      uint64            `json:"executed"`
	Failed        uint64            `json:"failed"`
	Alerts        uint64            `json:"alerts"`
	StateChanges  uint64            `json:"state_changes"`
	LastRotation  *rotation.Summary `json:"last_rotation,omitempty"`
}

type statsRecorder struct {
	mu sync.Mutex
	s  Stats
}

func (r *statsRecorder) cycle(at time.Time, listed, skipped int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.LastCycleAt = at
	r.s.LastCycleOK = ok
	r.s.ChecksListed = listed
	r.s.ChecksSkipped = skipped
}

func (r *statsRecorder) started() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.InFlight++
}

func (r *statsRecorder) finished(report result.Report, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.InFlight--
	r.s.Executed++
	if err != nil {
		r.s.Failed++
		return
	}
	if report.Previous != report.State {
		r.s.StateChanges++
	}
	if report.Notified {
		r.s.Alerts++
	}
}

func (r *statsRecorder) rotated(summary rotation.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.LastRotation = &summary
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.s
	if out.LastRotation != nil {
		cp := *out.LastRotation
		out.LastRotation = &cp
	}
	return out
}
