package sim

import (
	"errors"
	"fmt"
	"strings"
)

// InitializationError reports a model that could not seed a run from
// validated parameters. Distinct from validation failure: the
// parameters were well-formed, the model rejected them semantically.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("model initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// StepError reports a failure inside a model step. Step is 1-based:
// the first transition after Init is step 1. History up to the failing
// step is preserved on the container.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ContractViolationError reports a model that does not satisfy the
// capability contract: unset members on a ModelFuncs adapter, a nil
// model or stopping condition, or a parameter struct that does not
// cover the schema.
type ContractViolationError struct {
	// Missing lists absent contract members, when enumerable.
	Missing []string

	// Reason describes violations that are not a member list.
	Reason string
}

func (e *ContractViolationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("model contract violation: missing %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("model contract violation: %s", e.Reason)
}

// PhaseError reports an operation attempted in the wrong phase, such
// as running an unconfigured container or configuring one twice. The
// container's phase is unchanged by a PhaseError.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("cannot %s in phase %s", e.Op, e.Phase)
}

// StepsExceededError reports a run that hit the opt-in WithMaxSteps
// quota before its stopping condition held.
type StepsExceededError struct {
	Steps int
	Limit int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run exceeded max steps (%d >= %d)", e.Steps, e.Limit)
}

// IsInitializationError reports whether err is or wraps an
// InitializationError.
func IsInitializationError(err error) bool {
	var ie *InitializationError
	return errors.As(err, &ie)
}

// IsStepError reports whether err is or wraps a StepError.
func IsStepError(err error) bool {
	var se *StepError
	return errors.As(err, &se)
}

// IsContractViolation reports whether err is or wraps a
// ContractViolationError.
func IsContractViolation(err error) bool {
	var ce *ContractViolationError
	return errors.As(err, &ce)
}

// IsPhaseError reports whether err is or wraps a PhaseError.
func IsPhaseError(err error) bool {
	var pe *PhaseError
	return errors.As(err, &pe)
}

// IsStepsExceeded reports whether err is or wraps a
// StepsExceededError.
func IsStepsExceeded(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
