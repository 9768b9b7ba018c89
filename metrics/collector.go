package metrics

import (
	persons "github.com/getpup/persons-api"
)

// Collector wraps metrics and provides helper methods with pre-filled labels.
type Collector struct {
	driver string
}

// NewCollector creates a new Collector for the given database driver.
func NewCollector(driver string) *Collector {
	return &Collector{driver: driver}
}

// IncMigrationAttempts increments the migration attempts counter for an outcome.
func (c *Collector) IncMigrationAttempts(outcome persons.Outcome) {
	MigrationAttemptsTotal.WithLabelValues(c.driver, outcome.String()).Inc()
}

// SetMigrationState sets the migration state gauge. Sets value to 1 for the given state, 0 for others.
func (c *Collector) SetMigrationState(state persons.MigrationState) {
	for _, s := range persons.MigrationStates {
		if s == state {
			MigrationState.WithLabelValues(c.driver, string(s)).Set(1)
		} else {
			MigrationState.WithLabelValues(c.driver, string(s)).Set(0)
		}
	}
}

// ObserveMigrationBackoff records a backoff delay observation.
func (c *Collector) ObserveMigrationBackoff(seconds float64) {
	MigrationBackoffSeconds.WithLabelValues(c.driver).Observe(seconds)
}

// ObserveMigrationDuration records the total migration duration.
func (c *Collector) ObserveMigrationDuration(seconds float64) {
	MigrationDuration.WithLabelValues(c.driver).Observe(seconds)
}

// IncStoreOperation increments the store operations counter.
// result is "ok", "not_found" or "error".
func (c *Collector) IncStoreOperation(operation, result string) {
	StoreOperationsTotal.WithLabelValues(c.driver, operation, result).Inc()
}
