package ops

import (
	"context"
	"fmt"
	"sort"
	"strings"

	middle "github.com/darwin-luque/uptime-monitor/internals/middleware"
	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/darwin-luque/uptime-monitor/internals/modules/scheduler"
	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
)

type RecordStore interface {
	ListIDs(ctx context.Context, kind string) ([]string, error)
	Read(ctx context.Context, kind, id string) ([]byte, error)
	Ping(ctx context.Context) error
}

type ArchiveReader interface {
	ListArchives(ctx context.Context, key string) ([]string, error)
	Decompress(ctx context.Context, archiveKey string) ([]byte, error)
}

type StatsSource interface {
	Stats() scheduler.Stats
}

type RequestStatsSource interface {
	Snapshot() map[string]middle.RouteStats
}

// Service answers read-only questions about the engine and the checks it runs.
type Service struct {
	records   RecordStore
	archives  ArchiveReader
	stats     StatsSource
	requests  RequestStatsSource
	validator *check.Validator
	maxChecks int
}

func NewService(
	records RecordStore,
	archives ArchiveReader,
	stats StatsSource,
	requests RequestStatsSource,
	validator *check.Validator,
	maxChecks int,
) *Service {
	return &Service{
		records:   records,
		archives:  archives,
		stats:     stats,
		requests:  requests,
		validator: validator,
		maxChecks: maxChecks,
	}
}

func (s *Service) Ready(ctx context.Context) error {
	return s.records.Ping(ctx)
}

func (s *Service) Status() StatusResponse {
	resp := StatusResponse{Scheduler: s.stats.Stats()}
	if s.requests != nil {
		resp.HTTP = s.requests.Snapshot()
	}
	return resp
}

// ListChecks reports every stored check, including the ones the engine
// skips because they do not validate, and the owners holding more checks
// than the configured limit.
func (s *Service) ListChecks(ctx context.Context) (GetAllChecksResponse, error) {
	ids, err := s.records.ListIDs(ctx, check.Kind)
	if err != nil {
		return GetAllChecksResponse{}, err
	}

	resp := GetAllChecksResponse{
		Total:           len(ids),
		Checks:          make([]CheckSummary, 0, len(ids)),
		OwnersOverLimit: []string{},
	}
	perOwner := make(map[string]int)
	for _, id := range ids {
		data, err := s.records.Read(ctx, check.Kind, id)
		if apperror.IsKind(err, apperror.NotFound) {
			continue
		}
		if err != nil {
			return GetAllChecksResponse{}, err
		}

		c, err := s.validator.Parse(data)
		if err != nil {
			resp.Invalid++
			resp.Checks = append(resp.Checks, CheckSummary{ID: id, Reason: reason(err)})
			continue
		}

		perOwner[c.OwnerID]++
		resp.Checks = append(resp.Checks, CheckSummary{
			ID:        id,
			OwnerID:   c.OwnerID,
			Valid:     true,
			State:     string(c.State),
			LastCheck: c.LastCheck,
		})
	}

	if s.maxChecks > 0 {
		for owner, n := range perOwner {
			if n > s.maxChecks {
				resp.OwnersOverLimit = append(resp.OwnersOverLimit, owner)
			}
		}
		sort.Strings(resp.OwnersOverLimit)
	}

	return resp, nil
}

func (s *Service) GetCheck(ctx context.Context, id string) (GetCheckResponse, error) {
	data, err := s.records.Read(ctx, check.Kind, id)
	if err != nil {
		return GetCheckResponse{}, err
	}

	c, err := s.validator.Parse(data)
	if err != nil {
		return GetCheckResponse{}, err
	}

	return GetCheckResponse{
		ID:             c.ID,
		OwnerID:        c.OwnerID,
		Target:         c.Target(),
		Method:         strings.ToUpper(string(c.Method)),
		SuccessCodes:   c.SuccessCodes,
		TimeoutSeconds: c.TimeoutSeconds,
		State:          string(c.State),
		LastCheck:      c.LastCheck,
	}, nil
}

func (s *Service) ListArchives(ctx context.Context, id string) (ArchivesResponse, error) {
	archives, err := s.archives.ListArchives(ctx, id)
	if err != nil {
		return ArchivesResponse{}, err
	}
	return ArchivesResponse{CheckID: id, Archives: archives}, nil
}

// ReadArchive returns the log lines stored in archive, which must belong to
// check id.
func (s *Service) ReadArchive(ctx context.Context, id, archive string) ([]byte, error) {
	if !strings.HasPrefix(archive, id+"-") {
		return nil, &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      "ops.service.read_archive",
			Message: fmt.Sprintf("archive %q does not belong to check %q", archive, id),
		}
	}
	return s.archives.Decompress(ctx, archive)
}

func reason(err error) string {
	if e, ok := err.(*apperror.Error); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
