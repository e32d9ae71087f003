package check

import (
	"slices"
	"time"
)

// Kind is the record-store kind under which checks are persisted.
const Kind = "checks"

type Protocol string

const (
	HTTP  Protocol = "http"
	HTTPS Protocol = "https"
)

type Method string

const (
	Get    Method = "get"
	Post   Method = "post"
	Put    Method = "put"
	Delete Method = "delete"
)

type State string

const (
	Up   State = "up"
	Down State = "down"
)

// Check is a validated check record. Values are never mutated in place:
// the processor builds a new Check for every transition.
type Check struct {
	ID             string
	OwnerID        string
	Protocol       Protocol
	URL            string
	Method         Method
	SuccessCodes   []int // sorted, unique
	TimeoutSeconds int
	State          State
	LastCheck      *time.Time // nil until the check has run once
}

// Target is the URL the prober requests.
func (c Check) Target() string {
	return string(c.Protocol) + "://" + c.URL
}

func (c Check) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Check) Accepts(code int) bool {
	_, found := slices.BinarySearch(c.SuccessCodes, code)
	return found
}

// WithResult returns a copy of c carrying the new state and run time.
func (c Check) WithResult(state State, at time.Time) Check {
	next := c
	next.SuccessCodes = slices.Clone(c.SuccessCodes)
	next.State = state
	at = at.UTC()
	next.LastCheck = &at
	return next
}

// Outcome is the raw result of one probe: a response code, or an error
// description, never both.
type Outcome struct {
	ResponseCode *int   `json:"responseCode,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (o Outcome) Failed() bool {
	return o.Error != ""
}

func Responded(code int) Outcome {
	return Outcome{ResponseCode: &code}
}

func Failed(reason string) Outcome {
	return Outcome{Error: reason}
}

// LogEntry is one line of a check's outcome log.
type LogEntry struct {
	Check   Check // as it was before the probe
	Outcome Outcome
	State   State
	Alert   bool
	Time    time.Time
}
