// Package engine implements the default-rate portfolio engine: the
// calendar model, the business-day due-date rule, the point-in-time
// reconstruction of the active portfolio, and the rate aggregation
// across granularities.
//
// The package is pure computation. It performs no I/O and holds no
// state between calls; everything is derived per request from the
// document facts handed in by the caller.
package engine

import (
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
)

// Day is a single calendar point in the report axis.
type Day struct {
	Date    time.Time
	Weekend bool
}

// DateOnly normalizes t to midnight UTC. All engine dates are
// day-granular; clock and zone information is discarded up front so
// comparisons behave like calendar-date comparisons.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days generates the inclusive calendar between start and end, each
// day tagged with a weekend flag. Weekend days stay in the sequence so
// callers can still use them for document selection; the daily series
// later drops them.
func Days(start, end time.Time) ([]Day, error) {
	start = DateOnly(start)
	end = DateOnly(end)
	if start.After(end) {
		return nil, &domain.ErrInvalidRange{
			Start: start.Format(time.DateOnly),
			End:   end.Format(time.DateOnly),
		}
	}

	days := make([]Day, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		days = append(days, Day{
			Date:    d,
			Weekend: wd == time.Saturday || wd == time.Sunday,
		})
	}
	return days, nil
}

// BusinessDays generates the inclusive calendar between start and end
// with weekends removed.
func BusinessDays(start, end time.Time) ([]time.Time, error) {
	days, err := Days(start, end)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		if !d.Weekend {
			out = append(out, d.Date)
		}
	}
	return out, nil
}
