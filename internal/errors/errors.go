// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrTimeout          = errors.New("operation timed out")
	ErrMissingAPIKey    = errors.New("provider API key missing")
	ErrMalformedQuote   = errors.New("malformed quote response")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
	ErrProductionLocked = errors.New("operation blocked: production mode enabled")
)

// ProviderKind classifies provider failures for retry decisions.
type ProviderKind string

const (
	// Retryable kinds: a later attempt may succeed.
	KindTimeout   ProviderKind = "timeout"
	KindRateLimit ProviderKind = "rate_limit"
	// Non-retryable kinds: retrying will not help.
	KindMissingKey     ProviderKind = "missing_key"
	KindParseFailure   ProviderKind = "parse_failure"
	KindSymbolNotFound ProviderKind = "symbol_not_found"
)

// ProviderError represents a failure fetching a quote from an upstream vendor.
type ProviderError struct {
	Vendor string
	Symbol string
	Kind   ProviderKind
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s] %s (%s): %v", e.Vendor, e.Symbol, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider error [%s] %s (%s)", e.Vendor, e.Symbol, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later fetch attempt may succeed.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindRateLimit
}

// NewProviderError creates a new ProviderError.
func NewProviderError(vendor, symbol string, kind ProviderKind, err error) *ProviderError {
	return &ProviderError{
		Vendor: vendor,
		Symbol: symbol,
		Kind:   kind,
		Err:    err,
	}
}

// PersistenceError represents a store read or write failure.
type PersistenceError struct {
	Op     string // e.g., "snapshot.insert", "asset.mark_alerted"
	Entity string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error [%s] %s: %v", e.Op, e.Entity, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(op, entity string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Entity: entity, Err: err}
}

// DispatchError represents a best-effort alert side effect that failed
// (mail send, history write). It never aborts a cycle.
type DispatchError struct {
	Channel string
	Symbol  string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch error [%s] %s: %v", e.Channel, e.Symbol, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NewDispatchError creates a new DispatchError.
func NewDispatchError(channel, symbol string, err error) *DispatchError {
	return &DispatchError{Channel: channel, Symbol: symbol, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
