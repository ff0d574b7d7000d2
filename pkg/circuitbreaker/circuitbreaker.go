package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

type Settings struct {
	Name string
	// MaxRequests is the number of trial calls let through while half-open
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold consecutive failures open the breaker
	FailureThreshold uint32
	// IsSuccessful reports errors that should not count as failures
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to State)
}

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        settings.Name,
			MaxRequests: settings.MaxRequests,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful:  settings.IsSuccessful,
			OnStateChange: settings.OnStateChange,
		}),
	}
}

// Execute runs fn unless the breaker is open.
func (c *CircuitBreaker) Execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (c *CircuitBreaker) Name() string {
	return c.cb.Name()
}

func (c *CircuitBreaker) State() State {
	return c.cb.State()
}

// IsOpen reports whether err was returned because the breaker rejected the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
