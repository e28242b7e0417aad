package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/stockledger?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func TestMySQLSetGet(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	db.ExecContext(ctx, `DELETE FROM kv_entries WHERE k LIKE 'test:%'`)

	if err := adapter.Set(ctx, "test:products", "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// Overwrite must replace, not duplicate
	if err := adapter.Set(ctx, "test:products", `[{"id":"A"}]`); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	value, found, err := adapter.Get(ctx, "test:products")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != `[{"id":"A"}]` {
		t.Errorf("unexpected value %q (found=%v)", value, found)
	}

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_entries WHERE k = 'test:products'`).Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	// Cleanup
	db.ExecContext(ctx, `DELETE FROM kv_entries WHERE k LIKE 'test:%'`)
}

func TestMySQLGet_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, found, err := adapter.Get(ctx, "test:nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected key to be absent")
	}
}

func TestMySQLRemove(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	adapter.Set(ctx, "test:remove", "x")
	if err := adapter.Remove(ctx, "test:remove"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, found, _ := adapter.Get(ctx, "test:remove"); found {
		t.Error("expected key to be removed")
	}
	if err := adapter.Remove(ctx, "test:remove"); err != nil {
		t.Errorf("unexpected error removing absent key: %v", err)
	}
}
