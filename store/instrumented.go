package store

import (
	"context"
	"errors"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/metrics"
)

// Instrumented wraps a PersonStore and counts every operation by result.
type Instrumented struct {
	next    PersonStore
	metrics *metrics.Collector
}

var _ PersonStore = (*Instrumented)(nil)

// NewInstrumented wraps next. A nil collector disables counting.
func NewInstrumented(next PersonStore, collector *metrics.Collector) *Instrumented {
	return &Instrumented{next: next, metrics: collector}
}

func (s *Instrumented) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}

	result := "ok"
	switch {
	case errors.Is(err, ErrPersonNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}

	s.metrics.IncStoreOperation(operation, result)
}

func (s *Instrumented) Migrate(ctx context.Context) error {
	err := s.next.Migrate(ctx)
	s.observe("migrate", err)
	return err
}

func (s *Instrumented) Create(ctx context.Context, p *persons.Person) error {
	err := s.next.Create(ctx, p)
	s.observe("create", err)
	return err
}

func (s *Instrumented) List(ctx context.Context) ([]persons.Person, error) {
	list, err := s.next.List(ctx)
	s.observe("list", err)
	return list, err
}

func (s *Instrumented) Get(ctx context.Context, id int64) (persons.Person, error) {
	p, err := s.next.Get(ctx, id)
	s.observe("get", err)
	return p, err
}

func (s *Instrumented) Update(ctx context.Context, id int64, name string, age int) (persons.Person, error) {
	p, err := s.next.Update(ctx, id, name, age)
	s.observe("update", err)
	return p, err
}

func (s *Instrumented) Delete(ctx context.Context, id int64) error {
	err := s.next.Delete(ctx, id)
	s.observe("delete", err)
	return err
}

func (s *Instrumented) Ping(ctx context.Context) error {
	err := s.next.Ping(ctx)
	s.observe("ping", err)
	return err
}
