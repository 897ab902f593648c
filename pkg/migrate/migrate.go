// Package migrate runs plain-SQL schema migrations against PostgreSQL.
// Migration files live on an embedded filesystem, named
// NNN_description.sql, with "-- +migrate Up" and "-- +migrate Down"
// sections. Applied versions are tracked in schema_migrations.
package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/lgulliver/galleon/pkg/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// Migrator applies and rolls back schema migrations.
type Migrator struct {
	db           *sql.DB
	migrationsFS fs.FS
	dir          string
}

// Migration is one parsed migration file.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// NewMigrator connects to the database and prepares a migration runner.
func NewMigrator(cfg *config.DatabaseConfig, migrationsFS fs.FS, dir string) (*Migrator, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Migrator{db: db, migrationsFS: migrationsFS, dir: dir}, nil
}

// Up applies every pending migration in version order.
func (m *Migrator) Up() error {
	if err := m.ensureVersionTable(); err != nil {
		return err
	}
	applied, err := m.appliedVersions()
	if err != nil {
		return err
	}
	migrations, err := m.load()
	if err != nil {
		return err
	}

	ran := 0
	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(mig.UpSQL,
			"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", mig.Version, mig.Name); err != nil {
			return fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("applied migration")
		ran++
	}
	if ran == 0 {
		log.Info().Msg("no pending migrations")
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down() error {
	if err := m.ensureVersionTable(); err != nil {
		return err
	}
	applied, err := m.appliedVersions()
	if err != nil {
		return err
	}
	last := 0
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		log.Info().Msg("no migrations to roll back")
		return nil
	}

	migrations, err := m.load()
	if err != nil {
		return err
	}
	for _, mig := range migrations {
		if mig.Version != last {
			continue
		}
		if err := m.apply(mig.DownSQL,
			"DELETE FROM schema_migrations WHERE version = $1", mig.Version); err != nil {
			return fmt.Errorf("rollback %d (%s): %w", mig.Version, mig.Name, err)
		}
		log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("rolled back migration")
		return nil
	}
	return fmt.Errorf("migration file for version %d not found", last)
}

// Close closes the database connection.
func (m *Migrator) Close() error {
	return m.db.Close()
}

func (m *Migrator) ensureVersionTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) load() ([]*Migration, error) {
	entries, err := fs.ReadDir(m.migrationsFS, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []*Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		mig, err := m.parseFile(entry.Name())
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping invalid migration file")
			continue
		}
		migrations = append(migrations, mig)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *Migrator) parseFile(filename string) (*Migration, error) {
	prefix, rest, ok := strings.Cut(filename, "_")
	if !ok {
		return nil, fmt.Errorf("invalid migration filename: %s", filename)
	}
	var version int
	if _, err := fmt.Sscanf(prefix, "%d", &version); err != nil {
		return nil, fmt.Errorf("failed to parse version from %s: %w", filename, err)
	}

	content, err := fs.ReadFile(m.migrationsFS, m.dir+"/"+filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration file %s: %w", filename, err)
	}

	var up, down []string
	inDown := false
	for _, line := range strings.Split(string(content), "\n") {
		switch strings.TrimSpace(line) {
		case "-- +migrate Up":
			inDown = false
		case "-- +migrate Down":
			inDown = true
		default:
			if inDown {
				down = append(down, line)
			} else {
				up = append(up, line)
			}
		}
	}

	return &Migration{
		Version: version,
		Name:    strings.TrimSuffix(rest, ".sql"),
		UpSQL:   strings.Join(up, "\n"),
		DownSQL: strings.Join(down, "\n"),
	}, nil
}

// apply runs the migration SQL and its bookkeeping statement in one
// transaction.
func (m *Migrator) apply(migrationSQL, recordSQL string, args ...interface{}) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migrationSQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if _, err := tx.Exec(recordSQL, args...); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
