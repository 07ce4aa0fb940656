package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// Migration describes one embedded set of goose migrations.
type Migration struct {
	FS fs.FS
	// Dir is the directory inside FS, "." when empty.
	Dir string
	// Table records applied versions. Each set needs its own table.
	Table string
}

// Migrate applies every pending migration of m.
func Migrate(ctx context.Context, pool *pgxpool.Pool, m Migration, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	dir := m.Dir
	if dir == "" {
		dir = "."
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	// Shares the pool's connections, so it is not closed here.
	sqlDB := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(m.FS)
	goose.SetLogger(gooseLogger{log.With(slog.String("component", "migrate"), slog.String("table", m.Table))})
	if m.Table != "" {
		goose.SetTableName(m.Table)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

type gooseLogger struct{ log *slog.Logger }

func (g gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

// Fatalf logs only; goose returns the error to the caller.
func (g gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
