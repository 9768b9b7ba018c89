// Package forecast generates the illustrative weather forecast served by the API.
package forecast

import (
	"math/rand/v2"
	"sync"
	"time"

	persons "github.com/getpup/persons-api"
)

const (
	// DefaultDays is the number of forecast days served by the API.
	DefaultDays = 5

	// MinTemperatureC is the lowest generated temperature (inclusive).
	MinTemperatureC = -20

	// MaxTemperatureC is the upper bound of generated temperatures (exclusive).
	MaxTemperatureC = 55
)

// Generator produces random forecasts. A Generator is safe for concurrent use.
type Generator struct {
	rand      *rand.Rand
	summaries []string
	now       func() time.Time

	mu sync.Mutex
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source (default: randomly seeded PCG).
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

// WithClock sets the function returning the current time (default: time.Now).
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator creates a Generator choosing summaries from the given list.
// An empty list yields forecasts without a summary.
func NewGenerator(summaries []string, opts ...Option) *Generator {
	g := &Generator{
		rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		summaries: append([]string(nil), summaries...),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Forecast returns one forecast per day for the days after today, starting tomorrow.
func (g *Generator) Forecast(days int) []persons.WeatherForecast {
	if days <= 0 {
		return []persons.WeatherForecast{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.now()
	out := make([]persons.WeatherForecast, 0, days)
	for i := 1; i <= days; i++ {
		celsius := MinTemperatureC + g.rand.IntN(MaxTemperatureC-MinTemperatureC)

		var summary string
		if len(g.summaries) > 0 {
			summary = g.summaries[g.rand.IntN(len(g.summaries))]
		}

		out = append(out, persons.NewWeatherForecast(today.AddDate(0, 0, i), celsius, summary))
	}

	return out
}
