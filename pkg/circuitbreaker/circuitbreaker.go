// Package circuitbreaker builds the gobreaker breakers guarding calls to
// external collaborators.
package circuitbreaker

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

type Settings struct {
	Name string
	// Consecutive failures that open the breaker.
	TripAfter uint32
	// How long the breaker stays open before letting one probe through.
	OpenTimeout time.Duration
	// Cyclic period after which closed-state counts are cleared. Zero keeps
	// them until the next state change.
	Interval time.Duration
}

func withDefaults(s Settings) Settings {
	if s.TripAfter == 0 {
		s.TripAfter = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	return s
}

// New returns a breaker that logs every state change on logger, which may
// be nil.
func New(settings Settings, logger *zerolog.Logger) *gobreaker.CircuitBreaker {
	settings = withDefaults(settings)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.TripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
