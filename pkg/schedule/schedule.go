// Package schedule parses the period of a background cycle: either a Go
// duration ("24h") or a standard cron spec ("0 3 * * *", "@daily").
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Schedule interface {
	cron.Schedule
	fmt.Stringer
}

func Parse(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty schedule spec")
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("invalid schedule spec %q: interval must be positive", spec)
		}
		return Every(d), nil
	}

	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule spec %q: %w", spec, err)
	}
	return CronSchedule{spec: spec, schedule: s}, nil
}

type IntervalSchedule struct {
	Interval time.Duration
}

func Every(d time.Duration) IntervalSchedule {
	return IntervalSchedule{Interval: d}
}

func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s IntervalSchedule) String() string {
	return s.Interval.String()
}

type CronSchedule struct {
	spec     string
	schedule cron.Schedule
}

func (s CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s CronSchedule) String() string {
	return s.spec
}
