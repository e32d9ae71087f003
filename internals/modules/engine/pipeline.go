// Package engine runs one check end to end: read the stored record,
// validate it, probe the target and process the outcome.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/darwin-luque/uptime-monitor/internals/modules/result"
	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/rs/zerolog"
)

type RecordReader interface {
	Read(ctx context.Context, kind, id string) ([]byte, error)
}

type Prober interface {
	Probe(ctx context.Context, c check.Check) check.Outcome
}

type Processor interface {
	Process(ctx context.Context, c check.Check, outcome check.Outcome, now time.Time) result.Report
}

type Pipeline struct {
	records   RecordReader
	validator *check.Validator
	prober    Prober
	processor Processor
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewPipeline(
	records RecordReader,
	validator *check.Validator,
	prober Prober,
	processor Processor,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		records:   records,
		validator: validator,
		prober:    prober,
		processor: processor,
		now:       time.Now,
		logger:    logger,
	}
}

// Run executes check id once. Records that cannot be read or fail
// validation are skipped with a diagnostic and reported as an error; they
// are picked up again on the next cycle.
func (p *Pipeline) Run(ctx context.Context, id string) (result.Report, error) {
	const op = "engine.pipeline.run"

	data, err := p.records.Read(ctx, check.Kind, id)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			// deleted between listing and reading
			p.logger.Debug().Str("check_id", id).Msg("check disappeared before it ran")
		} else {
			p.logger.Error().Err(err).Str("check_id", id).Msg("could not read check")
		}
		return result.Report{CheckID: id}, err
	}

	c, err := p.validator.Parse(data)
	if err != nil {
		msg := err.Error()
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Message != "" {
			msg = appErr.Message
		}
		p.logger.Warn().Str("check_id", id).Str("reason", msg).Msg("skipping malformed check")
		return result.Report{CheckID: id}, err
	}

	outcome := p.prober.Probe(ctx, c)

	// shutting down: a cancelled probe says nothing about the target
	if ctx.Err() != nil {
		return result.Report{CheckID: id}, apperror.New(apperror.RequestTimeout, op, ctx.Err())
	}

	return p.processor.Process(ctx, c, outcome, p.now()), nil
}
