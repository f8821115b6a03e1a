package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/factory"
	"github.com/warp/rent-engine/metrics"
	"github.com/warp/rent-engine/rent"
	"github.com/warp/rent-engine/report"
	"github.com/warp/rent-engine/store/sqlite"
)

func newRunner(t *testing.T) (*report.Runner, *factory.Loaded) {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ds, err := factory.Parse(factory.Sample)
	require.NoError(t, err)
	loaded, err := factory.Load(context.Background(), s, ds)
	require.NoError(t, err)

	return &report.Runner{
		Store:     s,
		Currency:  "USD",
		CompanyID: 1,
		Metrics:   metrics.New(),
		Now:       func() time.Time { return time.Date(2024, time.February, 10, 15, 0, 0, 0, time.UTC) },
	}, loaded
}

func TestDefaultRange(t *testing.T) {
	r, _ := newRunner(t)

	got := r.DefaultRange(nil, nil)
	assert.Equal(t, rent.NewDate(2024, time.February, 1), got.Start)
	assert.Equal(t, rent.NewDate(2024, time.February, 29), got.End)

	from := rent.NewDate(2023, time.December, 1)
	got = r.DefaultRange(&from, nil)
	assert.Equal(t, from, got.Start)
	assert.Equal(t, rent.NewDate(2024, time.February, 29), got.End)
}

func TestRun_Summaries(t *testing.T) {
	r, loaded := newRunner(t)

	result, err := r.Run(context.Background(), rent.Query{Range: rent.Period{
		Start: rent.NewDate(2024, time.June, 1),
		End:   rent.NewDate(2024, time.July, 31),
	}})

	require.NoError(t, err)
	_, parseErr := uuid.Parse(result.RunID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "USD", result.Currency.Code)

	// 3 objects x 2 months
	assert.Len(t, result.Segments, 6)
	require.Len(t, result.ByObject, 3)
	assert.Equal(t, loaded.RentalObjects["shop-101"], result.ByObject[0].RentalObjectID)
	assert.Equal(t, "220", result.ByObject[0].Total.String())
	require.Len(t, result.ByMonth, 2)
	assert.Equal(t, 6, result.ByMonth[0].Month)
	assert.Equal(t, "100", result.ByMonth[0].Total.String())
	assert.Equal(t, "220", result.Total.Total.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Calculations.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.Metrics.SegmentsEmitted))
}

func TestRun_GroupFilter(t *testing.T) {
	r, loaded := newRunner(t)
	mall := loaded.Groups["mall"]

	result, err := r.Run(context.Background(), rent.Query{
		Range:   rent.Period{Start: rent.NewDate(2024, time.January, 1), End: rent.NewDate(2024, time.January, 31)},
		GroupID: &mall,
	})

	require.NoError(t, err)
	require.Len(t, result.ByObject, 2, "both shops sit under the mall, the office does not")
	for _, s := range result.Segments {
		assert.NotEqual(t, loaded.RentalObjects["office-7"], s.RentalObjectID)
	}
}

func TestRun_Failures(t *testing.T) {
	r, _ := newRunner(t)
	ctx := context.Background()

	_, err := r.Run(ctx, rent.Query{Range: rent.Period{
		Start: rent.NewDate(2024, time.March, 1),
		End:   rent.NewDate(2024, time.February, 1),
	}})
	assert.ErrorIs(t, err, rent.ErrInvalidRange)

	r.Currency = "EUR"
	_, err = r.Run(ctx, rent.Query{Range: r.DefaultRange(nil, nil)})
	assert.ErrorIs(t, err, rent.ErrCurrencyNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Metrics.Calculations.WithLabelValues(metrics.OutcomeClientError)))
}

func TestRun_SnapshotPerRun(t *testing.T) {
	r, _ := newRunner(t)
	ctx := context.Background()
	rng := rent.Query{Range: rent.Period{Start: rent.NewDate(2024, time.January, 1), End: rent.NewDate(2024, time.March, 31)}}

	direct, err := r.Run(ctx, rng)
	require.NoError(t, err)

	// GIVEN: runs read through a snapshot of the SQLite store
	store := r.Store.(*sqlite.Store)
	taken := 0
	r.Snapshot = func(ctx context.Context) (report.Store, error) {
		taken++
		return store.Snapshot(ctx)
	}

	// WHEN
	viaSnapshot, err := r.Run(ctx, rng)

	// THEN: one snapshot for the run, same rows as reading the store directly
	require.NoError(t, err)
	assert.Equal(t, 1, taken)
	assert.Equal(t, direct.Segments, viaSnapshot.Segments)

	boom := errors.New("database is locked")
	r.Snapshot = func(context.Context) (report.Store, error) { return nil, boom }
	_, err = r.Run(ctx, rng)
	assert.ErrorIs(t, err, boom)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, report.Outcome(nil))
	assert.Equal(t, metrics.OutcomeClientError, report.Outcome(&rent.InvalidRangeError{}))
	assert.Equal(t, metrics.OutcomeDataError, report.Outcome(&rent.UnsupportedTaxKindError{}))
	assert.Equal(t, metrics.OutcomeError, report.Outcome(errors.New("disk full")))
}
