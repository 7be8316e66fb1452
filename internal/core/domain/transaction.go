package domain

import "time"

type TransactionKind string

const (
	KindCreate    TransactionKind = "create"
	KindIncrement TransactionKind = "increment"
	KindDecrement TransactionKind = "decrement"
	KindRename    TransactionKind = "rename"
	KindDelete    TransactionKind = "delete"
)

// TransactionRecord is one immutable audit entry. The log is append-only:
// records are written in the same storage transaction as the balance change
// they describe and are never edited or removed, even after the SKU is gone.
type TransactionRecord struct {
	ID             int64
	SKUCode        string
	Kind           TransactionKind
	QuantityDelta  *int // nil for create/rename/delete
	QuantityBefore *int
	QuantityAfter  *int
	ActorID        int64
	Detail         string
	RecordedAt     time.Time
}
