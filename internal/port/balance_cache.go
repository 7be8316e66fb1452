package port

import (
	"context"

	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
)

// BalanceCache is an advisory read cache in front of the store plus an
// idempotency guard for redelivered chat updates. The store stays the
// source of truth; cache failures must never fail a ledger operation.
type BalanceCache interface {
	// GetSKU returns the cached SKU or nil on a miss.
	GetSKU(ctx context.Context, code string) (*domain.SKU, error)

	// SetSKU caches a balance read from committed state.
	SetSKU(ctx context.Context, sku domain.SKU) error

	// DeleteSKU evicts a balance.
	DeleteSKU(ctx context.Context, code string) error

	// ClaimUpdate marks a chat update id as processed, returns false if it
	// was already claimed.
	ClaimUpdate(ctx context.Context, updateID int) (bool, error)
}
