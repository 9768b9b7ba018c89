package memory

import (
	"context"
	"sort"
	"sync"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/store"
)

// Store is an in-memory implementation of PersonStore for testing and local runs.
// It provides thread-safe access to person data using a sync.RWMutex.
type Store struct {
	mu       sync.RWMutex
	persons  map[int64]persons.Person // personID -> person
	nextID   int64
	migrated bool
}

// Compile-time check that Store implements PersonStore.
var _ store.PersonStore = (*Store)(nil)

// New creates a new in-memory store with initialized maps.
func New() *Store {
	return &Store{
		persons: make(map[int64]persons.Person),
		nextID:  1,
	}
}

// Migrate marks the store as migrated. There is no schema to apply.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.migrated = true
	return nil
}

// Close releases nothing. It lets the store stand in for a database handle.
func (s *Store) Close() error {
	return nil
}

// Migrated reports whether Migrate has been called.
func (s *Store) Migrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.migrated
}

// Create inserts a new person and sets its ID.
func (s *Store) Create(ctx context.Context, p *persons.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.persons[p.ID] = *p

	return nil
}

// List returns all persons ordered by ID.
// Returns an empty slice if no persons exist.
func (s *Store) List(ctx context.Context) ([]persons.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]persons.Person, 0, len(s.persons))
	for _, p := range s.persons {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Get returns a person by ID.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *Store) Get(ctx context.Context, id int64) (persons.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return persons.Person{}, store.ErrPersonNotFound
	}

	return p, nil
}

// Update replaces the name and age of an existing person.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *Store) Update(ctx context.Context, id int64, name string, age int) (persons.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.persons[id]
	if !ok {
		return persons.Person{}, store.ErrPersonNotFound
	}

	p.Name = name
	p.Age = age
	s.persons[id] = p

	return p, nil
}

// Delete removes a person.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[id]; !ok {
		return store.ErrPersonNotFound
	}

	delete(s.persons, id)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}
