package application

import (
	"context"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type schemaSource struct {
	fsys fs.FS
	dir  string
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []schemaSource
}

func (m *migrationManager) RegisterSchema(fsys fs.FS, dir string) {
	m.schemas = append(m.schemas, schemaSource{fsys: fsys, dir: dir})
}

// Run applies pending migrations from every registered module schema.
// Version numbers are unique across modules, so the module schemas
// share one goose version table.
func (m *migrationManager) Run(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() {
		_ = db.Close()
	}()

	for _, src := range m.schemas {
		fsys := src.fsys
		if src.dir != "" && src.dir != "." {
			sub, err := fs.Sub(src.fsys, src.dir)
			if err != nil {
				return err
			}
			fsys = sub
		}
		provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
		if err != nil {
			return err
		}
		if _, err := provider.Up(ctx); err != nil {
			return err
		}
	}
	return nil
}
