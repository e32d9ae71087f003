package scheduler

import (
	"context"
	"sync"
)

// Guard keeps at most one execution of a check in flight.
type Guard interface {
	// Acquire returns acquired=false when checkID is still running. release
	// must be called exactly once when acquired is true.
	Acquire(ctx context.Context, checkID string) (release func(), acquired bool, err error)
}

// LocalGuard is an in-process Guard.
type LocalGuard struct {
	inflight sync.Map
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{}
}

func (g *LocalGuard) Acquire(ctx context.Context, checkID string) (func(), bool, error) {
	if _, loaded := g.inflight.LoadOrStore(checkID, struct{}{}); loaded {
		return nil, false, nil
	}
	return func() { g.inflight.Delete(checkID) }, true, nil
}
