package domain

import "time"

// Document is a receivable title purchased in a factoring operation.
// It is a read-only fact supplied by the ledger store; the reporting
// engine never mutates it. Optional dates are pointers: a nil DueDate
// means the title carries no contractual due date, a nil SettlementDate
// means it is still outstanding.
type Document struct {
	ID             string
	FaceValue      float64
	IssueDate      time.Time
	DueDate        *time.Time
	SettlementDate *time.Time
	Deleted        bool
}

// Settled reports whether the document was paid or written off.
func (d *Document) Settled() bool {
	return d.SettlementDate != nil
}

// Operation statuses as stored in the ledger.
const (
	OperationStatusOpen   = 0
	OperationStatusClosed = 1
)

// Document statuses as stored in the ledger. Only open documents
// participate in the point-in-time default-rate snapshot.
const (
	DocumentStatusOpen    = 0
	DocumentStatusSettled = 1
)
