package services

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrStaleState means a concurrent caller moved the payment first.
	// Re-fetch and retry, or surface "already processed".
	ErrStaleState = errors.New("payment was modified by another request")
)

// InvalidFileError rejects a bad upload before any network call is made.
type InvalidFileError struct {
	Reason string
}

func (e *InvalidFileError) Error() string {
	return "invalid slip file: " + e.Reason
}

// InvalidTransitionError is returned for an action that is not legal from
// the payment's current status, e.g. rejecting a COMPLETED payment.
type InvalidTransitionError struct {
	Status string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a payment in status %s", e.Action, e.Status)
}

// SettlementPartialFailureError flags a settlement that committed the
// payment/order but failed a downstream step. Retrying Settle repairs it.
type SettlementPartialFailureError struct {
	Step string
	Err  error
}

func (e *SettlementPartialFailureError) Error() string {
	return fmt.Sprintf("settlement partially applied, step %q failed: %v", e.Step, e.Err)
}

func (e *SettlementPartialFailureError) Unwrap() error { return e.Err }
