package result

import (
	"context"
	"time"

	"github.com/darwin-luque/uptime-monitor/internals/modules/alert"
	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/rs/zerolog"
)

// ResultProcessor turns a probe outcome into the check's next state and
// carries out the side effects in a fixed order: log, persist, notify.
// Each step fails independently; nothing is rolled back or retried.
type ResultProcessor struct {
	records  RecordWriter
	logs     LogAppender
	notifier alert.Notifier
	logger   *zerolog.Logger
}

func NewResultProcessor(
	records RecordWriter,
	logs LogAppender,
	notifier alert.Notifier,
	logger *zerolog.Logger,
) *ResultProcessor {
	return &ResultProcessor{
		records:  records,
		logs:     logs,
		notifier: notifier,
		logger:   logger,
	}
}

// Process applies outcome to c as observed at now.
func (rp *ResultProcessor) Process(ctx context.Context, c check.Check, outcome check.Outcome, now time.Time) Report {
	state := check.Evaluate(c, outcome)
	warranted := check.AlertWarranted(c, state)

	report := Report{
		CheckID:  c.ID,
		Previous: c.State,
		State:    state,
		Alert:    warranted,
	}

	log := rp.logger.With().Str("check_id", c.ID).Logger()

	// 1. log, whatever happens next
	report.Logged = rp.appendLog(ctx, &log, check.LogEntry{
		Check:   c,
		Outcome: outcome,
		State:   state,
		Alert:   warranted,
		Time:    now,
	})

	// 2. persist
	next := c.WithResult(state, now)
	data, err := check.Encode(next)
	if err == nil {
		err = rp.records.Update(ctx, check.Kind, c.ID, data)
	}
	if apperror.IsKind(err, apperror.NotFound) {
		log.Info().Str("state", string(state)).Msg("check was deleted while it ran, result dropped")
		return report
	}
	if err != nil {
		log.Error().Err(err).Str("state", string(state)).Msg("failed to persist check result")
		return report
	}
	report.Persisted = true

	// 3. notify, only once the new state is stored
	if !warranted {
		return report
	}

	if err := rp.notifier.Send(ctx, alert.NewMessage(next, state)); err != nil {
		log.Error().
			Err(err).
			Str("owner_id", c.OwnerID).
			Str("state", string(state)).
			Msg("failed to send state change alert")
		return report
	}
	report.Notified = true

	log.Info().
		Str("from", string(c.State)).
		Str("to", string(state)).
		Msg("check changed state")

	return report
}

func (rp *ResultProcessor) appendLog(ctx context.Context, log *zerolog.Logger, entry check.LogEntry) bool {
	line, err := check.EncodeLogEntry(entry)
	if err == nil {
		err = rp.logs.Append(ctx, entry.Check.ID, line)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to append check log")
		return false
	}
	return true
}
