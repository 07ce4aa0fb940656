// Package pgwarehouse stores analytics entries in PostgreSQL.
package pgwarehouse

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edmunds-dev/edmunds/pkg/analytics"
	"github.com/edmunds-dev/edmunds/pkg/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

const table = "analytics_logs"

var columns = []string{"id", "kind", "occurred_at", "visitor_id", "user_id", "transaction", "payload"}

// Migrations returns the goose migrations creating the analytics table.
func Migrations() db.Migration {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return db.Migration{FS: sub, Table: "analytics_schema_migrations"}
}

// DB is the subset of *pgxpool.Pool the warehouse uses.
type DB interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Warehouse writes entries with COPY.
type Warehouse struct {
	db DB
}

func New(db DB) *Warehouse { return &Warehouse{db: db} }

// Store inserts entries. A redelivered batch fails on the primary key; the
// job then exhausts its attempts instead of duplicating rows.
func (w *Warehouse) Store(ctx context.Context, entries []analytics.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e.Payload())
		if err != nil {
			return fmt.Errorf("pgwarehouse: encode %s: %w", e.ID, err)
		}
		rows = append(rows, []any{e.ID, string(e.Kind), e.Time, e.VisitorID, e.UserID, e.Transaction, payload})
	}

	if _, err := w.db.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("pgwarehouse: copy: %w", err)
	}
	return nil
}

func (w *Warehouse) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := w.db.Exec(ctx, "DELETE FROM "+table+" WHERE occurred_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("pgwarehouse: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ analytics.Warehouse = (*Warehouse)(nil)
