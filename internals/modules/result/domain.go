package result

import (
	"context"

	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
)

type RecordWriter interface {
	Update(ctx context.Context, kind, id string, data []byte) error
}

type LogAppender interface {
	Append(ctx context.Context, key string, line []byte) error
}

// Report summarizes what processing one outcome did.
type Report struct {
	CheckID   string      `json:"check_id"`
	Previous  check.State `json:"previous"`
	State     check.State `json:"state"`
	Alert     bool        `json:"alert"`
	Logged    bool        `json:"logged"`
	Persisted bool        `json:"persisted"`
	Notified  bool        `json:"notified"`
}
