/*
Package report runs rent analyses for the HTTP API and the CLI.

PURPOSE:
  Wraps one engine run with everything around it: resolving the reporting
  currency, the default range, a run ID for log correlation, metrics and the
  summaries shown next to the segments.

RUN FLOW:
  0. Take a per-run snapshot of the store when Snapshot is set
  1. Resolve reporting currency by code (store)
  2. Build a Calculator over the store and a rate-table converter
  3. Calculate, timing the run and classifying the outcome
  4. Summarize by object and by month

SEE ALSO:
  - rent/calculator.go: The engine
  - api/analysis.go: HTTP surface
  - cmd/rentd/report.go: CLI surface
*/
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/metrics"
	"github.com/warp/rent-engine/rent"
)

// Store is what a run reads.
type Store interface {
	rent.RentalObjectStore
	rent.ContractStore
	rent.GroupStore
	currency.RateSource
	GetCurrencyByCode(ctx context.Context, code string) (*rent.Currency, error)
}

// Runner executes analysis runs. Metrics and Logger are optional.
type Runner struct {
	Store     Store
	Currency  string // reporting currency code
	CompanyID rent.ID
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time

	// Snapshot, when set, is called once per run and the view it returns
	// serves every read of that run in place of Store.
	Snapshot func(ctx context.Context) (Store, error)
}

// Result is one finished run.
type Result struct {
	RunID    string
	Range    rent.Period
	Currency rent.Currency
	Segments []rent.Segment
	ByObject []rent.ObjectSummary
	ByMonth  []rent.MonthSummary
	Total    rent.Totals
}

// DefaultRange fills a missing bound from the current month.
func (r *Runner) DefaultRange(from, to *rent.Date) rent.Period {
	month := rent.CurrentMonth(rent.DateOf(r.now()))
	if from != nil {
		month.Start = *from
	}
	if to != nil {
		month.End = *to
	}
	return month
}

// Run calculates q. Failed runs return no partial result.
func (r *Runner) Run(ctx context.Context, q rent.Query) (*Result, error) {
	runID := uuid.NewString()
	logger := r.logger().With("run_id", runID)
	start := time.Now()

	result, err := r.run(ctx, q, logger)

	outcome := Outcome(err)
	segments := 0
	if result != nil {
		result.RunID = runID
		segments = len(result.Segments)
	}
	if r.Metrics != nil {
		r.Metrics.ObserveCalculation(outcome, segments, time.Since(start))
	}

	if err != nil {
		logger.Warn("rent analysis failed", "range", q.Range.String(), "outcome", outcome, "error", err)
		return nil, err
	}
	logger.Info("rent analysis finished",
		"range", q.Range.String(),
		"segments", segments,
		"duration", time.Since(start),
	)
	return result, nil
}

func (r *Runner) run(ctx context.Context, q rent.Query, logger *slog.Logger) (*Result, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	store := r.Store
	if r.Snapshot != nil {
		snap, err := r.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		store = snap
	}

	reporting, err := store.GetCurrencyByCode(ctx, r.Currency)
	if err != nil {
		return nil, fmt.Errorf("reporting currency: %w", err)
	}

	calc := rent.NewCalculator(store, store, currency.NewConverter(store), *reporting, r.CompanyID)
	calc.Groups = store
	calc.Logger = logger

	segments, err := calc.Calculate(ctx, q)
	if err != nil {
		return nil, err
	}

	return &Result{
		Range:    q.Range,
		Currency: *reporting,
		Segments: segments,
		ByObject: rent.SummarizeByObject(segments),
		ByMonth:  rent.SummarizeByMonth(segments),
		Total:    rent.GrandTotal(segments),
	}, nil
}

// Outcome classifies a run error for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case rent.IsClientError(err), rent.IsNotFound(err), errors.Is(err, context.Canceled):
		return metrics.OutcomeClientError
	case rent.IsDataError(err):
		return metrics.OutcomeDataError
	default:
		return metrics.OutcomeError
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
