package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
)

const duplicateEntryErrNo = 1062

// MySQLAdapter is the persistent store: a balances table plus an append-only
// transaction log. Every mutating method runs a single transaction so the
// balance write and its audit record commit together.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// The unique key on name relies on MySQL's default case-insensitive
// collation, backing the ledger's own pre-check under concurrent creates.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS stock (
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL DEFAULT 0,
		PRIMARY KEY (code),
		UNIQUE KEY uniq_stock_name (name)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGINT NOT NULL AUTO_INCREMENT,
		sku_code VARCHAR(64) NOT NULL,
		kind VARCHAR(16) NOT NULL,
		quantity_delta INT NULL,
		quantity_before INT NULL,
		quantity_after INT NULL,
		actor_id BIGINT NOT NULL,
		detail VARCHAR(512) NOT NULL DEFAULT '',
		recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_transactions_sku_code (sku_code)
	)`,
}

// Migrate creates the schema if it does not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) CreateSKU(ctx context.Context, code, name string, actorID int64) (domain.SKU, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.SKU{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// A taken code wins over a taken name, so re-creating an existing SKU
	// reports the code conflict.
	var one int
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM stock WHERE code = ?`, code,
	).Scan(&one)
	switch {
	case err == nil:
		return domain.SKU{}, domain.ErrDuplicateCode
	case !errors.Is(err, sql.ErrNoRows):
		return domain.SKU{}, fmt.Errorf("check code: %w", err)
	}

	// Look the conflicting row up so the error can carry it.
	var existing domain.SKU
	err = tx.QueryRowContext(ctx, `
		SELECT code, name, quantity FROM stock WHERE LOWER(name) = LOWER(?) LIMIT 1`, name,
	).Scan(&existing.Code, &existing.Name, &existing.Quantity)
	switch {
	case err == nil:
		return domain.SKU{}, &domain.DuplicateNameError{Existing: existing}
	case !errors.Is(err, sql.ErrNoRows):
		return domain.SKU{}, fmt.Errorf("check name: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock (code, name, quantity) VALUES (?, ?, 0)`, code, name,
	); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo {
			if strings.Contains(mysqlErr.Message, "PRIMARY") {
				return domain.SKU{}, domain.ErrDuplicateCode
			}
			// Lost the race on the name index to a concurrent create.
			return domain.SKU{}, &domain.DuplicateNameError{Existing: domain.SKU{Name: name}}
		}
		return domain.SKU{}, fmt.Errorf("insert sku: %w", err)
	}

	if err := appendRecord(ctx, tx, auditRow{
		skuCode: code,
		kind:    domain.KindCreate,
		actorID: actorID,
		detail:  name,
	}); err != nil {
		return domain.SKU{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.SKU{}, fmt.Errorf("commit: %w", err)
	}
	return domain.SKU{Code: code, Name: name, Quantity: 0}, nil
}

func (m *MySQLAdapter) GetSKU(ctx context.Context, code string) (*domain.SKU, error) {
	var sku domain.SKU
	err := m.db.QueryRowContext(ctx, `
		SELECT code, name, quantity FROM stock WHERE code = ?`, code,
	).Scan(&sku.Code, &sku.Name, &sku.Quantity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sku: %w", err)
	}
	return &sku, nil
}

func (m *MySQLAdapter) AdjustQuantity(ctx context.Context, code string, delta int, actorID int64) (domain.SKU, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.SKU{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Row lock serializes concurrent adjustments of the same SKU, so two
	// decrements cannot both observe sufficient stock.
	var (
		name   string
		before int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT name, quantity FROM stock WHERE code = ? FOR UPDATE`, code,
	).Scan(&name, &before)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SKU{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SKU{}, fmt.Errorf("lock sku: %w", err)
	}

	after := before + delta
	if after < 0 {
		return domain.SKU{}, domain.ErrInsufficientStock
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE stock SET quantity = ? WHERE code = ?`, after, code,
	); err != nil {
		return domain.SKU{}, fmt.Errorf("update quantity: %w", err)
	}

	kind := domain.KindIncrement
	if delta < 0 {
		kind = domain.KindDecrement
	}
	if err := appendRecord(ctx, tx, auditRow{
		skuCode: code,
		kind:    kind,
		delta:   &delta,
		before:  &before,
		after:   &after,
		actorID: actorID,
	}); err != nil {
		return domain.SKU{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.SKU{}, fmt.Errorf("commit: %w", err)
	}
	return domain.SKU{Code: code, Name: name, Quantity: after}, nil
}

func (m *MySQLAdapter) RenameSKU(ctx context.Context, code, newName string, actorID int64) (domain.SKU, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.SKU{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		oldName  string
		quantity int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT name, quantity FROM stock WHERE code = ? FOR UPDATE`, code,
	).Scan(&oldName, &quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SKU{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SKU{}, fmt.Errorf("lock sku: %w", err)
	}

	var existing domain.SKU
	err = tx.QueryRowContext(ctx, `
		SELECT code, name, quantity FROM stock
		WHERE LOWER(name) = LOWER(?) AND code <> ? LIMIT 1`, newName, code,
	).Scan(&existing.Code, &existing.Name, &existing.Quantity)
	switch {
	case err == nil:
		return domain.SKU{}, &domain.DuplicateNameError{Existing: existing}
	case !errors.Is(err, sql.ErrNoRows):
		return domain.SKU{}, fmt.Errorf("check name: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE stock SET name = ? WHERE code = ?`, newName, code,
	); err != nil {
		return domain.SKU{}, fmt.Errorf("update name: %w", err)
	}

	if err := appendRecord(ctx, tx, auditRow{
		skuCode: code,
		kind:    domain.KindRename,
		actorID: actorID,
		detail:  fmt.Sprintf("%s -> %s", oldName, newName),
	}); err != nil {
		return domain.SKU{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.SKU{}, fmt.Errorf("commit: %w", err)
	}
	return domain.SKU{Code: code, Name: newName, Quantity: quantity}, nil
}

func (m *MySQLAdapter) DeleteSKU(ctx context.Context, code string, actorID int64) (string, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `
		SELECT name FROM stock WHERE code = ? FOR UPDATE`, code,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock sku: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM stock WHERE code = ?`, code); err != nil {
		return "", fmt.Errorf("delete sku: %w", err)
	}

	// The log entry outlives the SKU row.
	if err := appendRecord(ctx, tx, auditRow{
		skuCode: code,
		kind:    domain.KindDelete,
		actorID: actorID,
		detail:  name,
	}); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return name, nil
}

func (m *MySQLAdapter) ListAll(ctx context.Context) ([]domain.SKU, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT code, name, quantity FROM stock ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("query stock: %w", err)
	}
	defer rows.Close()

	var skus []domain.SKU
	for rows.Next() {
		var sku domain.SKU
		if err := rows.Scan(&sku.Code, &sku.Name, &sku.Quantity); err != nil {
			return nil, fmt.Errorf("scan sku: %w", err)
		}
		skus = append(skus, sku)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock: %w", err)
	}
	return skus, nil
}

func (m *MySQLAdapter) ListHistory(ctx context.Context) ([]domain.TransactionRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sku_code, kind, quantity_delta, quantity_before, quantity_after,
		       actor_id, detail, recorded_at
		FROM transactions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var (
			rec                  domain.TransactionRecord
			delta, before, after sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.SKUCode, &rec.Kind, &delta, &before, &after,
			&rec.ActorID, &rec.Detail, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan transaction record: %w", err)
		}
		rec.QuantityDelta = nullableInt(delta)
		rec.QuantityBefore = nullableInt(before)
		rec.QuantityAfter = nullableInt(after)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

type auditRow struct {
	skuCode string
	kind    domain.TransactionKind
	delta   *int
	before  *int
	after   *int
	actorID int64
	detail  string
}

func appendRecord(ctx context.Context, tx *sql.Tx, row auditRow) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
			(sku_code, kind, quantity_delta, quantity_before, quantity_after, actor_id, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`,
		row.skuCode, string(row.kind), row.delta, row.before, row.after, row.actorID, row.detail,
	)
	if err != nil {
		return fmt.Errorf("append transaction record: %w", err)
	}
	return nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
