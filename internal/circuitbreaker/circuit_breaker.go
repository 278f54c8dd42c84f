package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/lumina-dashboard/internal/logging"
	"github.com/sony/gobreaker"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means the circuit is closed and requests are allowed
	StateClosed State = "closed"
	// StateOpen means the circuit is open and requests are blocked
	StateOpen State = "open"
	// StateHalfOpen means the circuit is testing if the service has recovered
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrTooManyRequests is returned when too many requests are made in half-open state
var ErrTooManyRequests = errors.New("too many requests in half-open state")

// CircuitBreaker guards calls to a flaky collaborator. It never retries:
// a failed call is reported once and counted toward tripping.
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// Config configures a circuit breaker
type Config struct {
	Name             string
	MaxFailures      int           // consecutive failures before opening
	FailureThreshold float64       // failure ratio that also trips once MaxFailures calls were seen
	Timeout          time.Duration // time spent open before probing
	HalfOpenMaxCalls int
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		MaxFailures:      5,
		FailureThreshold: 0.5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config *Config) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: uint32(config.HalfOpenMaxCalls),
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= uint32(config.MaxFailures) {
				return true
			}
			if config.FailureThreshold <= 0 || counts.Requests < uint32(config.MaxFailures) {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			entry := logging.WithFields(map[string]interface{}{
				"circuitBreaker": name,
				"from":           mapState(from),
				"state":          mapState(to),
			})
			if to == gobreaker.StateOpen {
				entry.Warn("Circuit breaker opened due to failures")
				return
			}
			entry.Info("Circuit breaker state changed")
		},
	}

	return &CircuitBreaker{
		name: config.Name,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute executes a function with circuit breaker protection. A cancelled
// context short-circuits before the call is attempted.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := cb.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return ErrCircuitOpen
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrTooManyRequests
	}
	return err
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	return mapState(cb.cb.State())
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() *Stats {
	counts := cb.cb.Counts()

	var rate float64
	if counts.Requests > 0 {
		rate = float64(counts.TotalFailures) / float64(counts.Requests)
	}

	return &Stats{
		Name:             cb.name,
		State:            cb.GetState(),
		Failures:         int(counts.TotalFailures),
		Successes:        int(counts.TotalSuccesses),
		TotalCalls:       int(counts.Requests),
		ConsecutiveFails: int(counts.ConsecutiveFailures),
		FailureRate:      rate,
	}
}

// Stats represents circuit breaker statistics
type Stats struct {
	Name             string  `json:"name"`
	State            State   `json:"state"`
	Failures         int     `json:"failures"`
	Successes        int     `json:"successes"`
	TotalCalls       int     `json:"totalCalls"`
	ConsecutiveFails int     `json:"consecutiveFails"`
	FailureRate      float64 `json:"failureRate"`
}

func mapState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
