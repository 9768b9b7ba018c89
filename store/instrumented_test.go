package store

import (
	"context"
	"errors"
	"testing"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeOps(driver, operation, result string) float64 {
	return testutil.ToFloat64(metrics.StoreOperationsTotal.WithLabelValues(driver, operation, result))
}

func TestInstrumented_CountsResults(t *testing.T) {
	mock := NewMockPersonStore()
	mock.GetFunc = func(ctx context.Context, id int64) (persons.Person, error) {
		if id == 1 {
			return persons.Person{ID: 1, Name: "Ada"}, nil
		}
		return persons.Person{}, ErrPersonNotFound
	}
	mock.ListFunc = func(ctx context.Context) ([]persons.Person, error) {
		return nil, errors.New("connection reset")
	}

	s := NewInstrumented(mock, metrics.NewCollector("instrumented_test"))
	ctx := context.Background()

	p, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)

	_, err = s.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrPersonNotFound)

	_, err = s.List(ctx)
	assert.Error(t, err)

	assert.Equal(t, float64(1), storeOps("instrumented_test", "get", "ok"))
	assert.Equal(t, float64(1), storeOps("instrumented_test", "get", "not_found"))
	assert.Equal(t, float64(1), storeOps("instrumented_test", "list", "error"))
}

func TestInstrumented_DelegatesEveryOperation(t *testing.T) {
	mock := NewMockPersonStore()
	mock.CreateFunc = func(ctx context.Context, p *persons.Person) error {
		p.ID = 3
		return nil
	}
	mock.UpdateFunc = func(ctx context.Context, id int64, name string, age int) (persons.Person, error) {
		return persons.Person{ID: id, Name: name, Age: age}, nil
	}
	mock.DeleteFunc = func(ctx context.Context, id int64) error {
		return nil
	}

	s := NewInstrumented(mock, nil)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))

	p := &persons.Person{Name: "Grace", Age: 85}
	require.NoError(t, s.Create(ctx, p))
	assert.Equal(t, int64(3), p.ID)

	updated, err := s.Update(ctx, 3, "Grace Hopper", 86)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", updated.Name)

	require.NoError(t, s.Delete(ctx, 3))
	require.NoError(t, s.Ping(ctx))

	assert.Equal(t, 1, mock.MigrateCalls)
	assert.Len(t, mock.CreateCalls, 1)
	assert.Len(t, mock.UpdateCalls, 1)
	assert.Len(t, mock.DeleteCalls, 1)
	assert.Equal(t, 1, mock.PingCalls)
}
