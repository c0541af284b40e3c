package engine

import (
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
)

// ratedDocument is a document admitted to default-rate computation,
// with its effective due date resolved once per query.
type ratedDocument struct {
	faceValue    float64
	issue        time.Time
	effectiveDue time.Time
	settled      bool
	settlement   time.Time
}

// Portfolio is the per-request working set of rated documents.
// Construction filters out soft-deleted documents and documents with
// no due date (they never count toward default rates), and normalizes
// every date to day granularity. A Portfolio is immutable after
// construction, so snapshots for different days may run concurrently.
type Portfolio struct {
	docs []ratedDocument
}

// NewPortfolio builds the working set from raw ledger facts. The store
// may hand in a superset of the requested range; filtering here keeps
// the engine correct regardless of how wide the store's selection
// predicate was.
func NewPortfolio(docs []domain.Document) *Portfolio {
	rated := make([]ratedDocument, 0, len(docs))
	for _, d := range docs {
		if d.Deleted || d.DueDate == nil {
			continue
		}
		rd := ratedDocument{
			faceValue:    d.FaceValue,
			issue:        DateOnly(d.IssueDate),
			effectiveDue: AdjustDueDate(*d.DueDate),
		}
		if d.SettlementDate != nil {
			rd.settled = true
			rd.settlement = DateOnly(*d.SettlementDate)
		}
		rated = append(rated, rd)
	}
	return &Portfolio{docs: rated}
}

// Size returns the number of documents admitted to the working set.
func (p *Portfolio) Size() int {
	return len(p.docs)
}

// activeOn reports whether the document was outstanding on day:
// issued on or before the day and not yet settled, or settled strictly
// after the day.
func (d *ratedDocument) activeOn(day time.Time) bool {
	if d.issue.After(day) {
		return false
	}
	return !d.settled || d.settlement.After(day)
}

// overdueOn reports whether the document was past due on day. The
// predicate is strictly "effective due date before day": a title due
// today is not yet overdue.
func (d *ratedDocument) overdueOn(day time.Time) bool {
	return d.effectiveDue.Before(day)
}

// DailySnapshot is the reconstructed portfolio state for one calendar
// point. DelayDaysTotal accumulates, over the overdue subset, the
// number of days each document is past its effective due date; buckets
// recompute the average delay from this sum rather than averaging
// per-day averages.
type DailySnapshot struct {
	Date           time.Time
	ActiveValue    float64
	ActiveCount    int
	OverdueValue   float64
	OverdueCount   int
	DelayDaysTotal int
}

// SnapshotOn reconstructs the active set and its overdue subset for a
// single day. Each document's issue/settlement window is evaluated
// independently; there is no running state, so snapshots for distinct
// days are independent of each other. The overdue subset is evaluated
// inside the active test, which guarantees it is a subset of the
// active set.
func (p *Portfolio) SnapshotOn(day time.Time) DailySnapshot {
	day = DateOnly(day)
	snap := DailySnapshot{Date: day}
	for i := range p.docs {
		d := &p.docs[i]
		if !d.activeOn(day) {
			continue
		}
		snap.ActiveValue += d.faceValue
		snap.ActiveCount++
		if d.overdueOn(day) {
			snap.OverdueValue += d.faceValue
			snap.OverdueCount++
			snap.DelayDaysTotal += int(day.Sub(d.effectiveDue).Hours() / 24)
		}
	}
	return snap
}

// CurrentRate classifies the open portfolio as of today and reports
// the two aggregate rate metrics. It is the single-point degenerate
// case of the daily series and shares its due-date and overdue
// predicates, so the "current" endpoint can never drift from the
// historical one.
func (p *Portfolio) CurrentRate(today time.Time) domain.CurrentRateSnapshot {
	today = DateOnly(today)
	var snap domain.CurrentRateSnapshot
	for i := range p.docs {
		d := &p.docs[i]
		if !d.activeOn(today) {
			continue
		}
		snap.OpenDocuments++
		snap.OpenValue += d.faceValue
		if d.overdueOn(today) {
			snap.OverdueDocuments++
			snap.OverdueValue += d.faceValue
		}
	}
	snap.OpenValue = round2(snap.OpenValue)
	snap.OverdueValue = round2(snap.OverdueValue)
	snap.DefaultRatePercent = ratePercent(float64(snap.OverdueDocuments), float64(snap.OpenDocuments))
	snap.DefaultRateValuePercent = ratePercent(snap.OverdueValue, snap.OpenValue)
	return snap
}
