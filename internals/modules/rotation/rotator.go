package rotation

import (
	"context"
	"fmt"
	"time"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/rs/zerolog"
)

const maxArchiveSuffix = 9

type LogStore interface {
	ListActive(ctx context.Context) ([]string, error)
	Compress(ctx context.Context, key, archiveKey string) error
	Truncate(ctx context.Context, key string) error
}

// Summary describes one rotation pass.
type Summary struct {
	StartedAt time.Time `json:"started_at"`
	Rotated   []string  `json:"rotated"`
	Failed    []string  `json:"failed"`
}

// Rotator compresses every active log into a timestamped archive and then
// empties it. A log is only truncated once its archive is written.
type Rotator struct {
	logs   LogStore
	now    func() time.Time
	logger *zerolog.Logger
}

func NewRotator(logs LogStore, logger *zerolog.Logger) *Rotator {
	return &Rotator{
		logs:   logs,
		now:    time.Now,
		logger: logger,
	}
}

// ArchiveKey names the archive of key taken at t.
func ArchiveKey(key string, t time.Time) string {
	return fmt.Sprintf("%s-%d", key, t.UnixMilli())
}

// compress archives key under ArchiveKey, adding a counter suffix while an
// archive of the same millisecond already exists.
func (r *Rotator) compress(ctx context.Context, key string) (string, error) {
	base := ArchiveKey(key, r.now())
	archiveKey := base

	for n := 1; ; n++ {
		err := r.logs.Compress(ctx, key, archiveKey)
		if !apperror.IsKind(err, apperror.Conflict) || n > maxArchiveSuffix {
			return archiveKey, err
		}
		archiveKey = fmt.Sprintf("%s-%d", base, n)
	}
}

// RotateAll rotates every active log. Per-log failures are collected in
// the summary; only a failure to list the logs is returned as an error.
func (r *Rotator) RotateAll(ctx context.Context) (Summary, error) {
	summary := Summary{
		StartedAt: r.now(),
		Rotated:   []string{},
		Failed:    []string{},
	}

	keys, err := r.logs.ListActive(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("could not list logs to rotate")
		return summary, err
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}

		archiveKey, err := r.compress(ctx, key)
		if err != nil {
			r.logger.Error().Err(err).Str("log_key", key).Msg("failed to compress log")
			summary.Failed = append(summary.Failed, key)
			continue
		}

		if err := r.logs.Truncate(ctx, key); err != nil {
			r.logger.Error().Err(err).Str("log_key", key).Str("archive", archiveKey).Msg("failed to truncate log")
			summary.Failed = append(summary.Failed, key)
			continue
		}

		summary.Rotated = append(summary.Rotated, key)
	}

	r.logger.Info().
		Int("rotated", len(summary.Rotated)).
		Int("failed", len(summary.Failed)).
		Msg("log rotation finished")

	return summary, nil
}
