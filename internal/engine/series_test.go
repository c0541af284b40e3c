package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/engine"
)

func TestParseGranularity_UnknownFallsBackToMonth(t *testing.T) {
	cases := map[string]engine.Granularity{
		"day":          engine.GranularityDay,
		"month":        engine.GranularityMonth,
		"quarter_week": engine.GranularityQuarterWeek,
		"year":         engine.GranularityYear,
		"all":          engine.GranularityAll,
		"":             engine.GranularityMonth,
		"weekly":       engine.GranularityMonth,
		"DAY":          engine.GranularityMonth,
	}
	for in, want := range cases {
		if got := engine.ParseGranularity(in); got != want {
			t.Errorf("ParseGranularity(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestRateSeries_DailyExcludesWeekends(t *testing.T) {
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2023-12-01", "2024-02-01", ""),
	})

	series, err := p.RateSeries(context.Background(), date(t, "2024-01-01"), date(t, "2024-01-31"), engine.GranularityDay)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// January 2024 has 23 business days.
	if len(series) != 23 {
		t.Fatalf("expected 23 daily points, got %d", len(series))
	}
	for _, pt := range series {
		d, err := time.Parse(time.DateOnly, pt.PeriodLabel)
		if err != nil {
			t.Fatalf("bad daily label %q: %v", pt.PeriodLabel, err)
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("daily series contains weekend point %s", pt.PeriodLabel)
		}
	}
}

func TestRateSeries_MonthBucketsWholeRange(t *testing.T) {
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2024-02-01", "2024-03-10", ""),
	})

	series, err := p.RateSeries(context.Background(), date(t, "2024-03-01"), date(t, "2024-03-31"), engine.GranularityMonth)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected exactly 1 month bucket, got %d", len(series))
	}
	if series[0].PeriodLabel != "2024-03" {
		t.Errorf("expected label 2024-03, got %q", series[0].PeriodLabel)
	}
}

func TestRateSeries_MonthEqualsRebucketedDays(t *testing.T) {
	docs := []domain.Document{
		doc(t, "d1", 1500, "2024-01-02", "2024-03-05", ""),
		doc(t, "d2", 2500, "2024-02-10", "2024-03-20", "2024-03-25"),
		doc(t, "d3", 800, "2024-03-04", "2024-04-30", ""),
	}
	p := engine.NewPortfolio(docs)
	start, end := date(t, "2024-03-01"), date(t, "2024-03-31")

	daily, err := p.RateSeries(context.Background(), start, end, engine.GranularityDay)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	monthly, err := p.RateSeries(context.Background(), start, end, engine.GranularityMonth)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(monthly) != 1 {
		t.Fatalf("expected 1 monthly bucket, got %d", len(monthly))
	}

	var activeValue, overdueValue float64
	var activeCount, overdueCount int
	for _, pt := range daily {
		activeValue += pt.ActiveValue
		activeCount += pt.ActiveCount
		overdueValue += pt.OverdueValue
		overdueCount += pt.OverdueCount
	}

	m := monthly[0]
	if m.ActiveCount != activeCount || m.OverdueCount != overdueCount {
		t.Errorf("counts drifted: month %d/%d vs re-summed days %d/%d", m.ActiveCount, m.OverdueCount, activeCount, overdueCount)
	}
	wantRate := float64(0)
	if activeValue > 0 {
		wantRate = overdueValue / activeValue * 100
	}
	if diff := m.RateByValue - wantRate; diff > 0.01 || diff < -0.01 {
		t.Errorf("rate by value drifted: month %.2f vs re-summed days %.2f", m.RateByValue, wantRate)
	}
}

func TestRateSeries_RatesBounded(t *testing.T) {
	docs := []domain.Document{
		doc(t, "d1", 900, "2024-01-01", "2024-01-03", ""),
		doc(t, "d2", 100, "2024-01-01", "2024-12-01", ""),
	}
	p := engine.NewPortfolio(docs)

	for _, g := range []engine.Granularity{engine.GranularityDay, engine.GranularityMonth, engine.GranularityQuarterWeek, engine.GranularityYear, engine.GranularityAll} {
		series, err := p.RateSeries(context.Background(), date(t, "2024-01-01"), date(t, "2024-03-31"), g)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", g, err)
		}
		for _, pt := range series {
			if pt.RateByCount < 0 || pt.RateByCount > 100 {
				t.Errorf("%s %s: rate by count out of range: %.2f", g, pt.PeriodLabel, pt.RateByCount)
			}
			if pt.RateByValue < 0 || pt.RateByValue > 100 {
				t.Errorf("%s %s: rate by value out of range: %.2f", g, pt.PeriodLabel, pt.RateByValue)
			}
		}
	}
}

func TestRateSeries_QuarterWeekLabelsAndOrder(t *testing.T) {
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2024-01-01", "2024-06-01", ""),
	})

	series, err := p.RateSeries(context.Background(), date(t, "2024-02-19"), date(t, "2024-03-15"), engine.GranularityQuarterWeek)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(series) < 4 {
		t.Fatalf("expected at least 4 week buckets, got %d", len(series))
	}

	// February weeks must come before March weeks despite W10 < W9 lexicographically.
	seen := map[string]bool{}
	lastMonth := 0
	for _, pt := range series {
		var y, m, w int
		if _, err := fmt.Sscanf(pt.PeriodLabel, "%d-%d-W%d", &y, &m, &w); err != nil {
			t.Fatalf("bad quarter_week label %q: %v", pt.PeriodLabel, err)
		}
		if seen[pt.PeriodLabel] {
			t.Errorf("duplicate bucket %q", pt.PeriodLabel)
		}
		seen[pt.PeriodLabel] = true
		if m < lastMonth {
			t.Errorf("buckets out of chronological order: month %02d after %02d", m, lastMonth)
		}
		lastMonth = m
	}
}

func TestRateSeries_AllGranularitySingleBucket(t *testing.T) {
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2024-01-01", "2024-06-01", ""),
	})

	series, err := p.RateSeries(context.Background(), date(t, "2024-01-01"), date(t, "2024-12-31"), engine.GranularityAll)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected a single bucket, got %d", len(series))
	}
	if series[0].PeriodLabel != "Todo o Período" {
		t.Errorf("expected label 'Todo o Período', got %q", series[0].PeriodLabel)
	}
}

func TestRateSeries_EmptyPortfolioZeroRates(t *testing.T) {
	p := engine.NewPortfolio(nil)
	series, err := p.RateSeries(context.Background(), date(t, "2024-03-01"), date(t, "2024-03-31"), engine.GranularityMonth)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, pt := range series {
		if pt.ActiveValue != 0 || pt.RateByValue != 0 || pt.RateByCount != 0 {
			t.Errorf("%s: expected all-zero bucket, got %+v", pt.PeriodLabel, pt)
		}
	}
}

func TestRateSeries_InvalidRange(t *testing.T) {
	p := engine.NewPortfolio(nil)
	_, err := p.RateSeries(context.Background(), date(t, "2024-03-31"), date(t, "2024-03-01"), engine.GranularityDay)
	var invalid *domain.ErrInvalidRange
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestRateSeries_CancelledContext(t *testing.T) {
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2024-01-01", "2024-06-01", ""),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.RateSeries(ctx, date(t, "2024-01-01"), date(t, "2024-12-31"), engine.GranularityDay)
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}
