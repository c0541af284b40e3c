package engine

import "time"

// AdjustDueDate maps a nominal due date to the effective due date:
// Saturday rolls forward 2 days and Sunday 1 day, landing on Monday in
// both cases. Weekday due dates are unchanged.
//
// This is the business policy of the ledger, not a generic weekend
// skip: national holidays are deliberately not considered.
func AdjustDueDate(nominal time.Time) time.Time {
	d := DateOnly(nominal)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}
