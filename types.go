package persons

import "time"

// Person is the single entity served by the API.
// ID is assigned by the store on creation and never changes afterwards.
type Person struct {
	// ID is the unique, system-assigned identifier.
	ID int64 `json:"id" db:"id" jsonschema:"description=System-assigned identifier"`

	// Name is the person's display name.
	Name string `json:"name" db:"name"`

	// Age is the person's age in years.
	Age int `json:"age" db:"age"`
}

// WeatherForecast is one day of the illustrative forecast endpoint.
type WeatherForecast struct {
	// Date is the forecast day formatted as YYYY-MM-DD.
	Date string `json:"date" jsonschema:"format=date"`

	// TemperatureC is the temperature in degrees Celsius.
	TemperatureC int `json:"temperatureC"`

	// TemperatureF is derived from TemperatureC.
	TemperatureF int `json:"temperatureF"`

	// Summary is a short description of the weather, if any.
	Summary string `json:"summary,omitempty"`
}

// NewWeatherForecast builds a forecast for the given day and Celsius temperature.
func NewWeatherForecast(day time.Time, temperatureC int, summary string) WeatherForecast {
	return WeatherForecast{
		Date:         day.Format(time.DateOnly),
		TemperatureC: temperatureC,
		TemperatureF: 32 + int(float64(temperatureC)/0.5556),
		Summary:      summary,
	}
}

// MigrationState represents where the startup migration runner is in its lifecycle.
type MigrationState string

const (
	// MigrationStateAttempting indicates a migration call is in flight.
	MigrationStateAttempting MigrationState = "attempting"

	// MigrationStateBackoffWait indicates the runner is waiting before the next attempt.
	MigrationStateBackoffWait MigrationState = "backoff_wait"

	// MigrationStateSucceeded indicates the schema is up to date.
	MigrationStateSucceeded MigrationState = "succeeded"

	// MigrationStateFatalFailed indicates the retry budget is exhausted.
	// This state is terminal and the process must not serve requests.
	MigrationStateFatalFailed MigrationState = "fatal_failed"
)

// MigrationStates lists every MigrationState in lifecycle order.
var MigrationStates = []MigrationState{
	MigrationStateAttempting,
	MigrationStateBackoffWait,
	MigrationStateSucceeded,
	MigrationStateFatalFailed,
}

// Outcome classifies the result of a single migration attempt.
type Outcome int

const (
	// OutcomeSucceeded means the migration applied cleanly.
	OutcomeSucceeded Outcome = iota

	// OutcomeTransient means the attempt failed but may be retried.
	OutcomeTransient

	// OutcomeFatal means the attempt failed and no retries remain.
	OutcomeFatal
)

// String returns a lowercase name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeTransient:
		return "transient"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
