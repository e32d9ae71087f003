package check

import (
	"time"

	"github.com/goccy/go-json"
)

// record is the persisted shape of a check; lastCheck is unix millis.
type record struct {
	ID             string   `json:"id"`
	OwnerID        string   `json:"ownerId"`
	Protocol       Protocol `json:"protocol"`
	URL            string   `json:"url"`
	Method         Method   `json:"method"`
	SuccessCodes   []int    `json:"successCodes"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
	State          State    `json:"state"`
	LastCheck      *int64   `json:"lastCheck,omitempty"`
}

func (c Check) MarshalJSON() ([]byte, error) {
	r := record{
		ID:             c.ID,
		OwnerID:        c.OwnerID,
		Protocol:       c.Protocol,
		URL:            c.URL,
		Method:         c.Method,
		SuccessCodes:   c.SuccessCodes,
		TimeoutSeconds: c.TimeoutSeconds,
		State:          c.State,
	}
	if r.SuccessCodes == nil {
		r.SuccessCodes = []int{}
	}
	if c.LastCheck != nil {
		ms := c.LastCheck.UnixMilli()
		r.LastCheck = &ms
	}
	return json.Marshal(r)
}

// Encode returns the record-store representation of c.
func Encode(c Check) ([]byte, error) {
	return json.Marshal(c)
}

type logLine struct {
	Check   Check   `json:"check"`
	Outcome Outcome `json:"outcome"`
	State   State   `json:"state"`
	Alert   bool    `json:"alert"`
	Time    int64   `json:"time"`
}

// EncodeLogEntry returns e as a single JSON line without the trailing newline.
func EncodeLogEntry(e LogEntry) ([]byte, error) {
	return json.Marshal(logLine{
		Check:   e.Check,
		Outcome: e.Outcome,
		State:   e.State,
		Alert:   e.Alert,
		Time:    e.Time.UnixMilli(),
	})
}

func millis(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}
