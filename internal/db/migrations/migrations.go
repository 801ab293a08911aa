// Package migrations holds the goose SQL migrations for the engagement schema
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/pressly/goose/v3"
)

// FS contains every migration file
//
//go:embed *.sql
var FS embed.FS

// Up applies pending migrations. An empty dir uses the embedded files,
// otherwise migrations are read from dir on disk.
func Up(db *sql.DB, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	var fsys fs.FS = FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
