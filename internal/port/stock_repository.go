package port

import (
	"context"

	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
)

// StockRepository is the transactional persistent store behind the ledger.
// Every mutating method runs as one atomic unit: the balance write and the
// matching audit record commit together or not at all.
type StockRepository interface {
	// CreateSKU inserts a new SKU with quantity 0 and appends a create record.
	// Returns domain.ErrDuplicateCode or *domain.DuplicateNameError on conflict.
	CreateSKU(ctx context.Context, code, name string, actorID int64) (domain.SKU, error)

	// GetSKU returns the SKU or nil when absent. Read-only, no audit record.
	GetSKU(ctx context.Context, code string) (*domain.SKU, error)

	// AdjustQuantity applies a signed delta under a row lock and appends an
	// increment or decrement record with the before/after snapshot.
	// A negative delta larger than the balance fails with
	// domain.ErrInsufficientStock and leaves the balance untouched.
	AdjustQuantity(ctx context.Context, code string, delta int, actorID int64) (domain.SKU, error)

	// RenameSKU changes the display name and appends a rename record carrying
	// the old and new name. Re-validates name uniqueness like CreateSKU.
	RenameSKU(ctx context.Context, code, newName string, actorID int64) (domain.SKU, error)

	// DeleteSKU removes the SKU and appends a delete record. The audit log
	// outlives the row. Returns the deleted name.
	DeleteSKU(ctx context.Context, code string, actorID int64) (string, error)

	// ListAll returns all SKUs ordered by code ascending.
	ListAll(ctx context.Context) ([]domain.SKU, error)

	// ListHistory returns the full audit log ordered by id ascending.
	ListHistory(ctx context.Context) ([]domain.TransactionRecord, error)
}
