/*
errors.go - Error types for the payoff engine

PURPOSE:
  The engine is total over its documented domain. The only errors it returns
  are precondition violations, detected before the first simulated month.
  A debt whose minimum payment never covers its interest is NOT an error: it
  is force-closed at SafetyBound and reported with PaidOff == false.

USAGE:
  if errors.Is(err, payoff.ErrPrecondition) {
      var pe *payoff.PreconditionError
      errors.As(err, &pe) // pe.DebtID, pe.Field
  }
*/
package payoff

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrPrecondition is wrapped by every input validation failure.
	ErrPrecondition = errors.New("precondition violated")

	// ErrUnknownStrategy is returned for strategies other than avalanche/snowball.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrNeverAmortizes is returned by EstimateMonths when the payment does not
	// exceed the monthly interest charge.
	ErrNeverAmortizes = errors.New("payment does not cover monthly interest")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// PreconditionError describes which input field is out of domain.
type PreconditionError struct {
	DebtID string // empty for plan-level fields
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	if e.DebtID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("debt %s: invalid %s: %s", e.DebtID, e.Field, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// IsClientError returns true if the error is caused by caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrPrecondition) ||
		errors.Is(err, ErrUnknownStrategy) ||
		errors.Is(err, ErrNeverAmortizes)
}
