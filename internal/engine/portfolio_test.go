package engine_test

import (
	"testing"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/engine"
)

func datePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	d := date(t, s)
	return &d
}

func doc(t *testing.T, id string, value float64, issue, due, settlement string) domain.Document {
	t.Helper()
	d := domain.Document{ID: id, FaceValue: value, IssueDate: date(t, issue)}
	if due != "" {
		d.DueDate = datePtr(t, due)
	}
	if settlement != "" {
		d.SettlementDate = datePtr(t, settlement)
	}
	return d
}

func TestSnapshotOn_ActiveWindow(t *testing.T) {
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2024-01-10", "2024-02-15", ""),
	})

	// Before issue: not active.
	if snap := p.SnapshotOn(date(t, "2024-01-09")); snap.ActiveCount != 0 {
		t.Errorf("expected inactive before issue, got count %d", snap.ActiveCount)
	}
	// On issue day: active.
	if snap := p.SnapshotOn(date(t, "2024-01-10")); snap.ActiveCount != 1 || snap.ActiveValue != 1000 {
		t.Errorf("expected active on issue day, got count=%d value=%.2f", snap.ActiveCount, snap.ActiveValue)
	}
}

func TestSnapshotOn_SettlementEndsActivity(t *testing.T) {
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 500, "2024-01-02", "2024-03-01", "2024-01-10"),
	})

	// Day before settlement: still active.
	if snap := p.SnapshotOn(date(t, "2024-01-09")); snap.ActiveCount != 1 {
		t.Errorf("expected active before settlement, got count %d", snap.ActiveCount)
	}
	// Settlement day: no longer active (settlement must be strictly after the day).
	if snap := p.SnapshotOn(date(t, "2024-01-10")); snap.ActiveCount != 0 {
		t.Errorf("expected inactive on settlement day, got count %d", snap.ActiveCount)
	}
}

func TestSnapshotOn_StrictOverduePredicate(t *testing.T) {
	// Nominal due 2024-01-06 is a Saturday; effective due is Monday 2024-01-08.
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2024-01-01", "2024-01-06", ""),
	})

	// On the effective due date itself the document is NOT overdue.
	snap := p.SnapshotOn(date(t, "2024-01-08"))
	if snap.OverdueCount != 0 {
		t.Errorf("expected not overdue on effective due date, got count %d", snap.OverdueCount)
	}

	// One day later it is, with a delay of one day.
	snap = p.SnapshotOn(date(t, "2024-01-09"))
	if snap.OverdueCount != 1 || snap.OverdueValue != 1000 {
		t.Errorf("expected overdue on 2024-01-09, got count=%d value=%.2f", snap.OverdueCount, snap.OverdueValue)
	}
	if snap.DelayDaysTotal != 1 {
		t.Errorf("expected delay of 1 day, got %d", snap.DelayDaysTotal)
	}
}

func TestSnapshotOn_OverdueSubsetOfActive(t *testing.T) {
	docs := []domain.Document{
		doc(t, "d1", 100, "2024-01-01", "2024-01-05", ""),           // overdue through the range
		doc(t, "d2", 200, "2024-01-01", "2024-01-05", "2024-01-20"), // settles mid-range
		doc(t, "d3", 300, "2024-01-15", "2024-03-01", ""),           // issued mid-range, not due
		doc(t, "d4", 400, "2024-02-20", "2024-03-01", ""),           // issued after the range
	}
	p := engine.NewPortfolio(docs)

	days, err := engine.BusinessDays(date(t, "2024-01-01"), date(t, "2024-02-10"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, day := range days {
		snap := p.SnapshotOn(day)
		if snap.OverdueCount > snap.ActiveCount {
			t.Fatalf("%s: overdue count %d exceeds active count %d", day.Format(time.DateOnly), snap.OverdueCount, snap.ActiveCount)
		}
		if snap.OverdueValue > snap.ActiveValue {
			t.Fatalf("%s: overdue value %.2f exceeds active value %.2f", day.Format(time.DateOnly), snap.OverdueValue, snap.ActiveValue)
		}
	}
}

func TestNewPortfolio_ExcludesDeletedAndUndated(t *testing.T) {
	deleted := doc(t, "d1", 100, "2024-01-01", "2024-01-05", "")
	deleted.Deleted = true
	undated := doc(t, "d2", 200, "2024-01-01", "", "")

	p := engine.NewPortfolio([]domain.Document{
		deleted,
		undated,
		doc(t, "d3", 300, "2024-01-01", "2024-01-05", ""),
	})
	if p.Size() != 1 {
		t.Fatalf("expected 1 rated document, got %d", p.Size())
	}
	snap := p.SnapshotOn(date(t, "2024-01-10"))
	if snap.ActiveValue != 300 {
		t.Errorf("expected active value 300, got %.2f", snap.ActiveValue)
	}
}

func TestCurrentRate_MatchesSeriesPredicates(t *testing.T) {
	today := date(t, "2024-06-12") // Wednesday
	p := engine.NewPortfolio([]domain.Document{
		doc(t, "d1", 1000, "2024-01-01", "2024-06-10", ""), // overdue
		doc(t, "d2", 3000, "2024-01-01", "2024-06-12", ""), // due today, not overdue
		doc(t, "d3", 2000, "2024-01-01", "2024-07-01", ""), // not due yet
	})

	snap := p.CurrentRate(today)
	if snap.OpenDocuments != 3 || snap.OverdueDocuments != 1 {
		t.Fatalf("expected 3 open / 1 overdue, got %d / %d", snap.OpenDocuments, snap.OverdueDocuments)
	}
	if snap.DefaultRatePercent != 33.33 {
		t.Errorf("expected rate by count 33.33, got %.2f", snap.DefaultRatePercent)
	}
	if snap.DefaultRateValuePercent != 16.67 {
		t.Errorf("expected rate by value 16.67, got %.2f", snap.DefaultRateValuePercent)
	}
}

func TestCurrentRate_EmptyPortfolio(t *testing.T) {
	p := engine.NewPortfolio(nil)
	snap := p.CurrentRate(date(t, "2024-06-12"))
	if snap.DefaultRatePercent != 0 || snap.DefaultRateValuePercent != 0 {
		t.Errorf("expected zero rates on empty portfolio, got %.2f / %.2f", snap.DefaultRatePercent, snap.DefaultRateValuePercent)
	}
}
