package server

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/credential"
)

func newBreaker(name string, config *Config) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
		IsSuccessful: countsAsSuccess,
	})
}

// countsAsSuccess keeps failures the upstream is not responsible for out
// of the breaker's failure count
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	return apperr.IsValidation(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, credential.ErrNoCredential)
}

// execute runs fn through cb and returns its typed result
func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
