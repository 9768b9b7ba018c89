package sqlstore

import (
	"context"
	"fmt"

	"github.com/getpup/persons-api/pkg/migrations"
)

// Migrate applies every pending migration, one transaction per version.
// Versions already recorded in the migrations table are skipped, so calling
// Migrate on an up-to-date schema is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	tableSQL, err := migrations.MigrationsTableSQL(s.dialect, s.tables)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, tableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	pending, err := migrations.Migrations(s.dialect, s.tables)
	if err != nil {
		return err
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if applied[m.Version] {
			continue
		}

		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Description, err)
		}

		if s.logger != nil {
			s.logger.Info(ctx, "migration applied", "version", m.Version, "description", m.Description)
		}
	}

	return nil
}

// AppliedVersions returns the recorded migration versions in ascending order.
func (s *Store) AppliedVersions(ctx context.Context) ([]int, error) {
	query := fmt.Sprintf(`SELECT version FROM %s ORDER BY version`, s.tables.MigrationsTable)

	var versions []int
	if err := s.db.SelectContext(ctx, &versions, query); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	return versions, nil
}

func (s *Store) appliedVersions(ctx context.Context) (map[int]bool, error) {
	versions, err := s.AppliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	return applied, nil
}

func (s *Store) apply(ctx context.Context, m migrations.Migration) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	record := tx.Rebind(fmt.Sprintf(`INSERT INTO %s (version, description) VALUES (?, ?)`, s.tables.MigrationsTable))
	if _, err := tx.ExecContext(ctx, record, m.Version, m.Description); err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}

	return tx.Commit()
}
