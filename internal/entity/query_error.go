package entity

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes query failures.
type ErrorKind string

const (
	// KindInvalidInput marks a user-correctable failure (malformed address).
	// Never retried.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindUpstreamUnavailable marks an exhausted retry budget against the RPC
	// or price source. Retryable by the caller later.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// KindPartialDataLoss marks a single record that could not be fetched or
	// classified. Logged and skipped, never fails the query.
	KindPartialDataLoss ErrorKind = "partial_data_loss"
	// KindPriceUnresolved marks an asset with no obtainable price. The policy
	// default of zero is substituted.
	KindPriceUnresolved ErrorKind = "price_unresolved"
)

// QueryError is a typed error surfaced by the pipeline.
type QueryError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewInvalidInput builds an InvalidInput error.
func NewInvalidInput(message string, cause error) *QueryError {
	return &QueryError{Kind: KindInvalidInput, Message: message, Cause: cause}
}

// NewUpstreamUnavailable builds an UpstreamUnavailable error.
func NewUpstreamUnavailable(message string, cause error) *QueryError {
	return &QueryError{Kind: KindUpstreamUnavailable, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or the empty string for untyped errors.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}
