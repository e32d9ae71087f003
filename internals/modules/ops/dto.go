package ops

import (
	"time"

	middle "github.com/darwin-luque/uptime-monitor/internals/middleware"
	"github.com/darwin-luque/uptime-monitor/internals/modules/scheduler"
)

type CheckSummary struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id,omitempty"`
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	State     string     `json:"state,omitempty"`
	LastCheck *time.Time `json:"last_check,omitempty"`
}

type GetCheckResponse struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Target         string     `json:"target"`
	Method         string     `json:"method"`
	SuccessCodes   []int      `json:"success_codes"`
	TimeoutSeconds int        `json:"timeout_seconds"`
	State          string     `json:"state"`
	LastCheck      *time.Time `json:"last_check,omitempty"`
}

type GetAllChecksResponse struct {
	Total           int            `json:"total"`
	Invalid         int            `json:"invalid"`
	Checks          []CheckSummary `json:"checks"`
	OwnersOverLimit []string       `json:"owners_over_limit"`
}

type ArchivesResponse struct {
	CheckID  string   `json:"check_id"`
	Archives []string `json:"archives"`
}

type StatusResponse struct {
	Scheduler scheduler.Stats              `json:"scheduler"`
	HTTP      map[string]middle.RouteStats `json:"http,omitempty"`
}
