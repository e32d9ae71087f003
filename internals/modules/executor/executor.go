package executor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/rs/zerolog"
)

// TimeoutReason is the outcome error recorded when a probe hits its deadline.
const TimeoutReason = "timeout"

// Prober performs one HTTP(S) request per check. It never retries.
type Prober struct {
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewProber(httpClient *http.Client, logger *zerolog.Logger) *Prober {
	return &Prober{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Probe requests c.Target() and reports exactly one outcome: the response
// code, a transport error, or TimeoutReason once c.Timeout() elapses.
// The response body is never read.
func (p *Prober) Probe(ctx context.Context, c check.Check) check.Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout())
	defer cancel()

	l := newLatch()
	start := time.Now()

	go func() {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			l.deliver(check.Failed(TimeoutReason))
			return
		}
		l.deliver(check.Failed("probe cancelled"))
	}()

	go func() {
		l.deliver(p.do(ctx, c))
	}()

	outcome := l.wait()

	p.logger.Debug().
		Str("check_id", c.ID).
		Str("target", c.Target()).
		Dur("elapsed", time.Since(start)).
		Interface("outcome", outcome).
		Msg("probe finished")

	return outcome
}

func (p *Prober) do(ctx context.Context, c check.Check) check.Outcome {
	method := strings.ToUpper(string(c.Method))

	req, err := http.NewRequestWithContext(ctx, method, c.Target(), nil)
	if err != nil {
		// the url passed validation but is not a valid request target
		return check.Failed(err.Error())
	}
	req.Header.Set("User-Agent", "uptime-monitor/1")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return check.Failed(classifyError(err))
	}
	_ = resp.Body.Close()

	return check.Responded(resp.StatusCode)
}

func classifyError(err error) string {

	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutReason
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TimeoutReason
	}

	return err.Error()
}

// latch keeps the first outcome delivered to it and drops the rest.
type latch struct {
	once sync.Once
	ch   chan check.Outcome
}

func newLatch() *latch {
	return &latch{ch: make(chan check.Outcome, 1)}
}

// deliver reports whether o was the first outcome.
func (l *latch) deliver(o check.Outcome) bool {
	first := false
	l.once.Do(func() {
		l.ch <- o
		first = true
	})
	return first
}

func (l *latch) wait() check.Outcome {
	return <-l.ch
}
