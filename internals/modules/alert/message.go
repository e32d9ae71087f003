package alert

import (
	"fmt"
	"strings"

	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
)

// EventType is the broker event type carrying a Message.
const EventType = "check.alert"

// Message tells an owner that one of their checks changed state.
type Message struct {
	OwnerID  string `json:"ownerId"`
	CheckID  string `json:"checkId"`
	Method   string `json:"method"`
	Protocol string `json:"protocol"`
	URL      string `json:"url"`
	State    string `json:"state"`
}

func NewMessage(c check.Check, state check.State) Message {
	return Message{
		OwnerID:  c.OwnerID,
		CheckID:  c.ID,
		Method:   string(c.Method),
		Protocol: string(c.Protocol),
		URL:      c.URL,
		State:    string(state),
	}
}

func (m Message) Text() string {
	return fmt.Sprintf("Alert: your check for %s %s://%s is currently %s",
		strings.ToUpper(m.Method), m.Protocol, m.URL, m.State)
}
