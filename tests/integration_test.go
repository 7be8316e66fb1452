package tests

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/xlebussssshek/warehouse-bot/internal/adapter/storage"
	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
	"github.com/xlebussssshek/warehouse-bot/internal/core/service"
)

type testEnv struct {
	mysql   *sql.DB
	redis   *redis.Client
	ledger  *service.Ledger
	store   *storage.MySQLAdapter
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/warehouse?parseTime=true"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	store := storage.NewMySQLAdapter(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	ctx := context.Background()
	db.ExecContext(ctx, `DELETE FROM stock WHERE code LIKE 'ITG-%'`)
	db.ExecContext(ctx, `DELETE FROM transactions WHERE sku_code LIKE 'ITG-%'`)
	for _, code := range []string{"ITG-001", "ITG-002"} {
		rdb.Del(ctx, "stock:"+code)
	}

	cache := storage.NewRedisAdapter(rdb)
	ledger := service.NewLedger(store, cache, nil)

	return &testEnv{
		mysql:  db,
		redis:  rdb,
		ledger: ledger,
		store:  store,
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func TestIntegration_RoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()
	ctx := context.Background()

	if _, err := env.ledger.CreateSKU(ctx, "itg-001", "ITG Widget", 42); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := env.ledger.IncrementQuantity(ctx, "ITG-001", 10, 42); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	sku, err := env.ledger.DecrementQuantity(ctx, "ITG-001", 10, 42)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if sku.Quantity != 0 {
		t.Errorf("expected final quantity 0, got %d", sku.Quantity)
	}

	history, err := env.ledger.ListHistory(ctx)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var kinds []domain.TransactionKind
	var lastID int64
	for _, rec := range history {
		if rec.SKUCode == "ITG-001" {
			kinds = append(kinds, rec.Kind)
			if rec.ID <= lastID {
				t.Errorf("ids must be strictly increasing, got %d after %d", rec.ID, lastID)
			}
			lastID = rec.ID
		}
	}
	want := []domain.TransactionKind{domain.KindCreate, domain.KindIncrement, domain.KindDecrement}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(kinds))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("record %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestIntegration_ConcurrentOverdraw(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()
	ctx := context.Background()

	env.ledger.CreateSKU(ctx, "ITG-001", "ITG Widget", 1)
	env.ledger.IncrementQuantity(ctx, "ITG-001", 1, 1)

	// Two decrements race against a balance that can satisfy only one.
	var successCount, insufficientCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.DecrementQuantity(ctx, "ITG-001", 1, 1)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficientCount.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 || insufficientCount.Load() != 1 {
		t.Errorf("expected exactly one winner, got %d successes and %d refusals",
			successCount.Load(), insufficientCount.Load())
	}

	sku, _ := env.store.GetSKU(ctx, "ITG-001")
	if sku.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", sku.Quantity)
	}
}

func TestIntegration_DeleteKeepsHistory(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()
	ctx := context.Background()

	env.ledger.CreateSKU(ctx, "ITG-001", "ITG Widget", 1)
	env.ledger.IncrementQuantity(ctx, "ITG-001", 5, 1)

	if _, err := env.ledger.DeleteSKU(ctx, "ITG-001", 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	sku, err := env.ledger.GetSKU(ctx, "ITG-001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if sku != nil {
		t.Error("expected sku gone after delete")
	}

	history, _ := env.ledger.ListHistory(ctx)
	count := 0
	for _, rec := range history {
		if rec.SKUCode == "ITG-001" {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected 3 surviving records, got %d", count)
	}
}

func TestIntegration_MutationsEvictCache(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()
	ctx := context.Background()

	env.ledger.CreateSKU(ctx, "ITG-002", "ITG Gadget", 1)
	env.ledger.IncrementQuantity(ctx, "ITG-002", 7, 1)

	// No cached balance survives a mutation.
	if err := env.redis.Get(ctx, "stock:ITG-002").Err(); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected evicted balance, got %v", err)
	}

	// The next read repopulates the cache from the committed state.
	sku, err := env.ledger.GetSKU(ctx, "ITG-002")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if sku.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", sku.Quantity)
	}

	data, err := env.redis.Get(ctx, "stock:ITG-002").Bytes()
	if err != nil {
		t.Fatalf("expected cached balance after read: %v", err)
	}
	var cached domain.SKU
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatalf("bad cache payload: %v", err)
	}
	if cached.Quantity != 7 {
		t.Errorf("expected cached quantity 7, got %d", cached.Quantity)
	}
}
