package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one versioned schema change loaded from migrations/{version}_{description}.sql.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// AppliedMigration records a migration already executed against the database.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
}

// LoadMigrations returns the embedded migrations ordered by version.
func LoadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, description, ok := strings.Cut(strings.TrimSuffix(entry.Name(), ".sql"), "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("migration %s: name must be {version}_{description}.sql", entry.Name())
		}
		content, err := migrationFiles.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(description, "_", " "),
			SQL:         string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Migrate applies every embedded migration that has not been recorded in
// schema_migrations. Each migration runs in its own transaction.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	const createVersionTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)
	`
	if _, err := cp.db.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	migrations, err := LoadMigrations()
	if err != nil {
		return err
	}

	applied, err := cp.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, migration := range applied {
		done[migration.Version] = true
	}

	for _, migration := range migrations {
		if done[migration.Version] {
			continue
		}
		if err := cp.applyMigration(ctx, migration); err != nil {
			return err
		}
	}
	return nil
}

func (cp *ConnectionPool) applyMigration(ctx context.Context, migration Migration) error {
	started := time.Now()
	return cp.WithTransaction(ctx, func(tx *sql.Tx) error {
		for i, stmt := range splitStatements(migration.SQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s statement %d: %w", migration.Version, i+1, err)
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, applied_at, execution_time_ms) VALUES (?, ?, ?)`,
			migration.Version,
			formatTimestamp(time.Now()),
			time.Since(started).Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("record migration %s: %w", migration.Version, err)
		}
		return nil
	})
}

// AppliedMigrations lists the recorded migrations ordered by version.
func (cp *ConnectionPool) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := cp.db.QueryContext(ctx, `
		SELECT version, applied_at, execution_time_ms
		FROM schema_migrations
		ORDER BY version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			migration AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&migration.Version, &appliedAt, &elapsedMs); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		if migration.AppliedAt, err = parseTimestamp("applied_at", appliedAt); err != nil {
			return nil, err
		}
		migration.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		applied = append(applied, migration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// splitStatements removes "--" comments and splits the remaining SQL on
// semicolons. Quoted text is copied as is, so neither marker is honoured
// inside a string literal or quoted identifier.
func splitStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      byte
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			current.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			current.WriteByte(c)
		case c == '-' && i+1 < len(content) && content[i+1] == '-':
			for i < len(content) && content[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case c == ';':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return statements
}
