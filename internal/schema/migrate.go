// Package schema owns the database schema and applies embedded migrations.
package schema

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"campaign-platform/pkg/logger"
	"campaign-platform/pkg/utils"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migration struct {
	version int
	name    string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		// "001_init.sql" -> 1
		prefix, _, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		out = append(out, migration{version: version, name: entry.Name(), sql: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// Migrate applies pending migrations in version order. Each migration and its
// schema_migrations row commit together.
func Migrate(ctx context.Context, db utils.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	log := logger.From(ctx)

	for _, m := range migrations {
		var applied bool
		// schema_migrations is created by the first migration; only a missing
		// table means nothing has been applied yet.
		if err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`,
			m.version,
		).Scan(&applied); err != nil {
			if !utils.IsUndefinedTable(err) {
				return fmt.Errorf("checking migration %s: %w", m.name, err)
			}
			applied = false
		}
		if applied {
			continue
		}

		log.Info("applying migration", "file", m.name, "version", m.version)
		err := utils.WithTx(ctx, db, func(ctx context.Context, tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return fmt.Errorf("applying migration %s: %w", m.name, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`,
				m.version,
			); err != nil {
				return fmt.Errorf("recording migration %s: %w", m.name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
