package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmenezes/fomento-report-api/internal/domain"
)

// Granularity selects how the daily series is re-bucketed.
type Granularity string

const (
	GranularityDay         Granularity = "day"
	GranularityMonth       Granularity = "month"
	GranularityQuarterWeek Granularity = "quarter_week"
	GranularityYear        Granularity = "year"
	GranularityAll         Granularity = "all"
)

// allPeriodLabel is the label of the single bucket produced by
// GranularityAll, kept verbatim for the legacy dashboards.
const allPeriodLabel = "Todo o Período"

// snapshotWorkers bounds the goroutines evaluating daily snapshots.
const snapshotWorkers = 8

// ParseGranularity maps a request token to a Granularity. Unknown
// tokens fall back to month; this leniency is part of the endpoint
// contract, not an error.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularityDay, GranularityMonth, GranularityQuarterWeek, GranularityYear, GranularityAll:
		return Granularity(s)
	}
	return GranularityMonth
}

// periodKey orders buckets chronologically. Labels like 2024-03-W10
// do not sort lexicographically, so ordering always goes through the
// numeric key and never through the label.
type periodKey struct {
	year  int
	month int
	week  int
	day   int
}

func (k periodKey) less(o periodKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	if k.month != o.month {
		return k.month < o.month
	}
	if k.week != o.week {
		return k.week < o.week
	}
	return k.day < o.day
}

// keyFor computes the grouping key and display label of a calendar
// point under the given granularity.
func keyFor(date time.Time, g Granularity) (periodKey, string) {
	switch g {
	case GranularityDay:
		return periodKey{date.Year(), int(date.Month()), 0, date.Day()},
			date.Format(time.DateOnly)
	case GranularityQuarterWeek:
		_, week := date.ISOWeek()
		return periodKey{date.Year(), int(date.Month()), week, 0},
			fmt.Sprintf("%04d-%02d-W%02d", date.Year(), int(date.Month()), week)
	case GranularityYear:
		return periodKey{year: date.Year()}, fmt.Sprintf("%04d", date.Year())
	case GranularityAll:
		return periodKey{}, allPeriodLabel
	default: // month
		return periodKey{year: date.Year(), month: int(date.Month())},
			date.Format("2006-01")
	}
}

// RateSeries reconstructs the daily snapshots over [start, end] and
// aggregates them into the requested granularity. Weekend days produce
// no snapshot. Daily snapshots are independent of each other and are
// evaluated concurrently; the computation aborts as a whole if ctx is
// cancelled.
func (p *Portfolio) RateSeries(ctx context.Context, start, end time.Time, g Granularity) ([]domain.RateSeriesPoint, error) {
	days, err := BusinessDays(start, end)
	if err != nil {
		return nil, err
	}

	snaps := make([]DailySnapshot, len(days))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(snapshotWorkers)
	for i, day := range days {
		i, day := i, day
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snaps[i] = p.SnapshotOn(day)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	return bucketSnapshots(snaps, g), nil
}

// bucket accumulates the daily snapshots that share a period key.
type bucket struct {
	key            periodKey
	label          string
	activeValue    float64
	activeCount    int
	overdueValue   float64
	overdueCount   int
	delayDaysTotal int
}

// bucketSnapshots groups the daily snapshots by period key and
// recomputes every rate from the bucket sums. Summing first and
// dividing once keeps low-volume days from being double-weighted, which
// averaging the per-day percentages would do.
func bucketSnapshots(snaps []DailySnapshot, g Granularity) []domain.RateSeriesPoint {
	byKey := make(map[periodKey]*bucket)
	for _, s := range snaps {
		key, label := keyFor(s.Date, g)
		b, ok := byKey[key]
		if !ok {
			b = &bucket{key: key, label: label}
			byKey[key] = b
		}
		b.activeValue += s.ActiveValue
		b.activeCount += s.ActiveCount
		b.overdueValue += s.OverdueValue
		b.overdueCount += s.OverdueCount
		b.delayDaysTotal += s.DelayDaysTotal
	}

	buckets := make([]*bucket, 0, len(byKey))
	for _, b := range byKey {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].key.less(buckets[j].key)
	})

	series := make([]domain.RateSeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		avgDelay := float64(0)
		if b.overdueCount > 0 {
			avgDelay = math.Round(float64(b.delayDaysTotal) / float64(b.overdueCount))
		}
		series = append(series, domain.RateSeriesPoint{
			PeriodLabel:      b.label,
			ActiveValue:      round2(b.activeValue),
			ActiveCount:      b.activeCount,
			OverdueValue:     round2(b.overdueValue),
			OverdueCount:     b.overdueCount,
			RateByCount:      ratePercent(float64(b.overdueCount), float64(b.activeCount)),
			RateByValue:      ratePercent(b.overdueValue, b.activeValue),
			AverageDelayDays: avgDelay,
		})
	}
	return series
}

// ratePercent is overdue/active*100 rounded to 2 decimals, with a zero
// denominator reported as 0 rather than NaN.
func ratePercent(overdue, active float64) float64 {
	if active <= 0 {
		return 0
	}
	return round2(overdue / active * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
