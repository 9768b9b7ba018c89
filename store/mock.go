package store

import (
	"context"
	"sync"

	persons "github.com/getpup/persons-api"
)

// MockPersonStore is a configurable mock implementation of PersonStore
// for use in tests. It allows setting up expected return values, tracking method
// calls, and injecting errors for testing error paths.
type MockPersonStore struct {
	mu sync.RWMutex

	// MigrateFunc is called by Migrate if set.
	MigrateFunc func(ctx context.Context) error

	// CreateFunc is called by Create if set.
	CreateFunc func(ctx context.Context, p *persons.Person) error

	// ListFunc is called by List if set.
	ListFunc func(ctx context.Context) ([]persons.Person, error)

	// GetFunc is called by Get if set.
	GetFunc func(ctx context.Context, id int64) (persons.Person, error)

	// UpdateFunc is called by Update if set.
	UpdateFunc func(ctx context.Context, id int64, name string, age int) (persons.Person, error)

	// DeleteFunc is called by Delete if set.
	DeleteFunc func(ctx context.Context, id int64) error

	// PingFunc is called by Ping if set.
	PingFunc func(ctx context.Context) error

	// Call tracking
	MigrateCalls int
	CreateCalls  []CreateCall
	ListCalls    int
	GetCalls     []GetCall
	UpdateCalls  []UpdateCall
	DeleteCalls  []DeleteCall
	PingCalls    int
}

// Call tracking structs
type CreateCall struct {
	Name string
	Age  int
}

type GetCall struct {
	ID int64
}

type UpdateCall struct {
	ID   int64
	Name string
	Age  int
}

type DeleteCall struct {
	ID int64
}

// Compile-time check that MockPersonStore implements PersonStore.
var _ PersonStore = (*MockPersonStore)(nil)

// NewMockPersonStore creates a new mock person store.
func NewMockPersonStore() *MockPersonStore {
	return &MockPersonStore{}
}

// Migrate implements Migrator.
func (m *MockPersonStore) Migrate(ctx context.Context) error {
	m.mu.Lock()
	m.MigrateCalls++
	m.mu.Unlock()

	if m.MigrateFunc != nil {
		return m.MigrateFunc(ctx)
	}

	return nil
}

// Create implements PersonStore.
func (m *MockPersonStore) Create(ctx context.Context, p *persons.Person) error {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, CreateCall{
		Name: p.Name,
		Age:  p.Age,
	})
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}

	return nil
}

// List implements PersonStore.
func (m *MockPersonStore) List(ctx context.Context) ([]persons.Person, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}

	return []persons.Person{}, nil
}

// Get implements PersonStore.
func (m *MockPersonStore) Get(ctx context.Context, id int64) (persons.Person, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, GetCall{ID: id})
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}

	return persons.Person{}, ErrPersonNotFound
}

// Update implements PersonStore.
func (m *MockPersonStore) Update(ctx context.Context, id int64, name string, age int) (persons.Person, error) {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{
		ID:   id,
		Name: name,
		Age:  age,
	})
	m.mu.Unlock()

	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, name, age)
	}

	return persons.Person{}, ErrPersonNotFound
}

// Delete implements PersonStore.
func (m *MockPersonStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, DeleteCall{ID: id})
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}

	return ErrPersonNotFound
}

// Ping implements PersonStore.
func (m *MockPersonStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	m.PingCalls++
	m.mu.Unlock()

	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}

	return nil
}

// Reset clears all call tracking.
func (m *MockPersonStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MigrateCalls = 0
	m.CreateCalls = nil
	m.ListCalls = 0
	m.GetCalls = nil
	m.UpdateCalls = nil
	m.DeleteCalls = nil
	m.PingCalls = 0
}
