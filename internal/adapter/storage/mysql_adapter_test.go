package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/provly/provenance/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/provenance?parseTime=true"
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

func testItem(serial string) domain.Item {
	return domain.Item{
		ID:             uint64(time.Now().UnixNano()), // avoid clashing with other runs
		Name:           "film camera",
		Description:    "1970s rangefinder",
		EstimatedValue: 1000,
		Serial:         serial,
		Owner:          "alice",
	}
}

func TestSave_RegistrationRecord(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}

	item := testItem(fmt.Sprintf("test-sn-%d", time.Now().UnixNano()))
	defer db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE item_id = ?`, item.ID)
	defer db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, item.ID)

	entry := domain.Transaction{
		To:    "alice",
		At:    time.Now(),
		Kind:  domain.KindRegistration,
		Price: 0,
	}
	if err := adapter.Save(ctx, domain.Record{Item: item, Entry: &entry}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	n, err := adapter.CountEntries(ctx, item.ID)
	if err != nil {
		t.Fatalf("count entries failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 ledger entry, got %d", n)
	}

	var owner string
	err = db.QueryRowContext(ctx, `SELECT owner FROM items WHERE id = ?`, item.ID).Scan(&owner)
	if err != nil {
		t.Fatalf("query item failed: %v", err)
	}
	if owner != "alice" {
		t.Errorf("expected owner alice, got %q", owner)
	}
}

func TestSave_SnapshotOnlyRecord(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}

	item := testItem(fmt.Sprintf("test-sn-%d", time.Now().UnixNano()))
	defer db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE item_id = ?`, item.ID)
	defer db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, item.ID)

	if err := adapter.Save(ctx, domain.Record{Item: item}); err != nil {
		t.Fatalf("initial save failed: %v", err)
	}

	// Certification updates the snapshot without writing a ledger entry.
	item.Certified = true
	item.Certifier = "inspector-1"
	if err := adapter.Save(ctx, domain.Record{Item: item}); err != nil {
		t.Fatalf("certified save failed: %v", err)
	}

	n, err := adapter.CountEntries(ctx, item.ID)
	if err != nil {
		t.Fatalf("count entries failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 ledger entries, got %d", n)
	}

	var certified bool
	var certifier sql.NullString
	err = db.QueryRowContext(ctx, `SELECT certified, certifier FROM items WHERE id = ?`, item.ID).Scan(&certified, &certifier)
	if err != nil {
		t.Fatalf("query item failed: %v", err)
	}
	if !certified || certifier.String != "inspector-1" {
		t.Errorf("expected certified by inspector-1, got certified=%v certifier=%q", certified, certifier.String)
	}
}
