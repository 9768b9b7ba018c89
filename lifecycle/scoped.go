package lifecycle

import (
	"context"
	"fmt"
	"sync"
)

// MigrationHandle is a connection that can migrate the schema and be released.
type MigrationHandle interface {
	Migrate(ctx context.Context) error
	Close() error
}

// OpenFunc opens a MigrationHandle.
type OpenFunc func(ctx context.Context) (MigrationHandle, error)

// ScopedMigrator opens its handle lazily on the first Migrate call and keeps
// retrying the open on later calls until it succeeds, so connection failures
// during a database startup race count as ordinary migration failures.
type ScopedMigrator struct {
	open OpenFunc

	mu     sync.Mutex
	handle MigrationHandle
}

// NewScopedMigrator creates a ScopedMigrator. Call Close to release the handle.
func NewScopedMigrator(open OpenFunc) *ScopedMigrator {
	return &ScopedMigrator{open: open}
}

// Migrate opens the handle if needed and migrates through it.
func (s *ScopedMigrator) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		h, err := s.open(ctx)
		if err != nil {
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
		s.handle = h
	}

	return s.handle.Migrate(ctx)
}

// Close releases the handle if one was opened. It is safe to call more than once.
func (s *ScopedMigrator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}

	err := s.handle.Close()
	s.handle = nil
	return err
}

// MigrateScoped runs a MigrationRunner over a handle opened by open and
// releases the handle when the runner finishes, whether it succeeded or not.
func MigrateScoped(ctx context.Context, open OpenFunc, opts ...Option) error {
	scoped := NewScopedMigrator(open)

	runErr := NewMigrationRunner(scoped, opts...).Run(ctx)
	closeErr := scoped.Close()

	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close migration connection: %w", closeErr)
	}
	return nil
}
