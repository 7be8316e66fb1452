package service

import (
	"context"
	"log/slog"

	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
	"github.com/xlebussssshek/warehouse-bot/internal/port"
)

// Ledger owns all validation over the stock store. It is the only writer:
// every mutation goes through exactly one repository call, which commits the
// balance change and its audit record in one atomic unit. The cache is
// advisory and never fails an operation. Mutations evict the cached balance
// rather than writing it: snapshot writes from racing mutations can land out
// of commit order. Reads repopulate the cache from committed state.
type Ledger struct {
	repo   port.StockRepository
	cache  port.BalanceCache
	logger *slog.Logger
}

func NewLedger(repo port.StockRepository, cache port.BalanceCache, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{repo: repo, cache: cache, logger: logger}
}

func (l *Ledger) CreateSKU(ctx context.Context, code, name string, actorID int64) (domain.SKU, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return domain.SKU{}, domain.ErrEmptyCode
	}
	if name == "" {
		return domain.SKU{}, domain.ErrEmptyName
	}

	sku, err := l.repo.CreateSKU(ctx, code, name, actorID)
	if err != nil {
		return domain.SKU{}, err
	}

	l.cacheEvict(ctx, sku.Code)
	l.logOp(ctx, "create", sku.Code, actorID)
	return sku, nil
}

// GetSKU is read-only and leaves no audit trace. Cache misses and cache
// failures both fall through to the store.
func (l *Ledger) GetSKU(ctx context.Context, code string) (*domain.SKU, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrEmptyCode
	}

	if cached, err := l.cache.GetSKU(ctx, code); err != nil {
		l.logger.Warn("cache read failed", slog.String("code", code), slog.String("error", err.Error()))
	} else if cached != nil {
		return cached, nil
	}

	sku, err := l.repo.GetSKU(ctx, code)
	if err != nil {
		return nil, err
	}
	if sku != nil {
		l.cacheSet(ctx, *sku)
	}
	return sku, nil
}

func (l *Ledger) IncrementQuantity(ctx context.Context, code string, amount int, actorID int64) (domain.SKU, error) {
	if amount <= 0 {
		return domain.SKU{}, domain.ErrInvalidAmount
	}
	code = domain.NormalizeCode(code)

	sku, err := l.repo.AdjustQuantity(ctx, code, amount, actorID)
	if err != nil {
		return domain.SKU{}, err
	}

	l.cacheEvict(ctx, sku.Code)
	l.logOp(ctx, "increment", sku.Code, actorID)
	return sku, nil
}

func (l *Ledger) DecrementQuantity(ctx context.Context, code string, amount int, actorID int64) (domain.SKU, error) {
	if amount <= 0 {
		return domain.SKU{}, domain.ErrInvalidAmount
	}
	code = domain.NormalizeCode(code)

	sku, err := l.repo.AdjustQuantity(ctx, code, -amount, actorID)
	if err != nil {
		return domain.SKU{}, err
	}

	l.cacheEvict(ctx, sku.Code)
	l.logOp(ctx, "decrement", sku.Code, actorID)
	return sku, nil
}

func (l *Ledger) RenameSKU(ctx context.Context, code, newName string, actorID int64) (domain.SKU, error) {
	code = domain.NormalizeCode(code)
	if newName == "" {
		return domain.SKU{}, domain.ErrEmptyName
	}

	sku, err := l.repo.RenameSKU(ctx, code, newName, actorID)
	if err != nil {
		return domain.SKU{}, err
	}

	l.cacheEvict(ctx, sku.Code)
	l.logOp(ctx, "rename", sku.Code, actorID)
	return sku, nil
}

// DeleteSKU removes the SKU for good; only its audit records remain.
// Returns the deleted name for confirmation messaging.
func (l *Ledger) DeleteSKU(ctx context.Context, code string, actorID int64) (string, error) {
	code = domain.NormalizeCode(code)

	name, err := l.repo.DeleteSKU(ctx, code, actorID)
	if err != nil {
		return "", err
	}

	l.cacheEvict(ctx, code)
	l.logOp(ctx, "delete", code, actorID)
	return name, nil
}

func (l *Ledger) ListAll(ctx context.Context) ([]domain.SKU, error) {
	return l.repo.ListAll(ctx)
}

func (l *Ledger) ListHistory(ctx context.Context) ([]domain.TransactionRecord, error) {
	return l.repo.ListHistory(ctx)
}

func (l *Ledger) cacheSet(ctx context.Context, sku domain.SKU) {
	if err := l.cache.SetSKU(ctx, sku); err != nil {
		l.logger.Warn("cache write failed", slog.String("code", sku.Code), slog.String("error", err.Error()))
	}
}

func (l *Ledger) cacheEvict(ctx context.Context, code string) {
	if err := l.cache.DeleteSKU(ctx, code); err != nil {
		l.logger.Warn("cache evict failed", slog.String("code", code), slog.String("error", err.Error()))
	}
}

func (l *Ledger) logOp(ctx context.Context, op, code string, actorID int64) {
	l.logger.Info("ledger operation",
		slog.String("op", op),
		slog.String("code", code),
		slog.Int64("actor_id", actorID),
	)
}
