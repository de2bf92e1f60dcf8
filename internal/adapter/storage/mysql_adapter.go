package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/provly/provenance/internal/core/domain"
)

// MySQLAdapter mirrors committed ledger state into MySQL. The in-memory
// ledger stays authoritative; rows here serve restarts and off-process
// reporting.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the mirror tables when absent.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id BIGINT UNSIGNED PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			estimated_value BIGINT NOT NULL,
			serial VARCHAR(255) NOT NULL UNIQUE,
			image_ref VARCHAR(512),
			owner VARCHAR(255) NOT NULL,
			certified BOOLEAN NOT NULL DEFAULT FALSE,
			certifier VARCHAR(255),
			for_sale BOOLEAN NOT NULL DEFAULT FALSE,
			sale_price BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id CHAR(36) PRIMARY KEY,
			item_id BIGINT UNSIGNED NOT NULL,
			prev_owner VARCHAR(255),
			new_owner VARCHAR(255) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			price BIGINT NOT NULL,
			occurred_at TIMESTAMP NOT NULL,
			INDEX idx_ledger_item (item_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) Save(ctx context.Context, rec domain.Record) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (id, name, description, estimated_value, serial, image_ref, owner, certified, certifier, for_sale, sale_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			owner = VALUES(owner),
			certified = VALUES(certified),
			certifier = VALUES(certifier),
			for_sale = VALUES(for_sale),
			sale_price = VALUES(sale_price)`,
		rec.Item.ID, rec.Item.Name, rec.Item.Description, rec.Item.EstimatedValue,
		rec.Item.Serial, rec.Item.ImageRef, rec.Item.Owner, rec.Item.Certified,
		rec.Item.Certifier, rec.Item.ForSale, rec.Item.SalePrice,
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}

	if rec.Entry != nil {
		var prev sql.NullString
		if rec.Entry.From != "" {
			prev = sql.NullString{String: rec.Entry.From, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (id, item_id, prev_owner, new_owner, kind, price, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), rec.Item.ID, prev, rec.Entry.To, string(rec.Entry.Kind),
			rec.Entry.Price, rec.Entry.At,
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}

	return tx.Commit()
}

// CountEntries reports how many ledger entries are mirrored for an item.
func (m *MySQLAdapter) CountEntries(ctx context.Context, itemID uint64) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE item_id = ?`, itemID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}
