package sim

// Model is the capability contract a simulation model satisfies to run
// inside a Container.
//
// P is the decoded parameter struct, S the model state, O the per-step
// observation. Step must be total over states reachable from Init and
// must not mutate its inputs; the container threads state explicitly
// from one step to the next. Observe must not fail on reachable
// states.
type Model[P, S, O any] interface {
	// Init builds the initial state. A semantic failure (parameters
	// that pass validation but cannot seed a run) is reported as an
	// error and surfaces as an InitializationError.
	Init(params P) (S, error)

	// Step advances the state by one step.
	Step(state S, params P) (S, error)

	// Observe projects a state into an observation record.
	Observe(state S) O
}

// ModelFuncs adapts three closures into a Model. Useful for small
// models and tests where a named type would be ceremony.
type ModelFuncs[P, S, O any] struct {
	InitFunc    func(params P) (S, error)
	StepFunc    func(state S, params P) (S, error)
	ObserveFunc func(state S) O
}

func (m ModelFuncs[P, S, O]) Init(params P) (S, error) {
	return m.InitFunc(params)
}

func (m ModelFuncs[P, S, O]) Step(state S, params P) (S, error) {
	return m.StepFunc(state, params)
}

func (m ModelFuncs[P, S, O]) Observe(state S) O {
	return m.ObserveFunc(state)
}

// CheckContract reports unset members. The container calls this at
// bind time, before the run starts, so a half-wired model fails with a
// ContractViolationError naming every missing member instead of a nil
// dereference mid-run.
func (m ModelFuncs[P, S, O]) CheckContract() error {
	var missing []string
	if m.InitFunc == nil {
		missing = append(missing, "Init")
	}
	if m.StepFunc == nil {
		missing = append(missing, "Step")
	}
	if m.ObserveFunc == nil {
		missing = append(missing, "Observe")
	}
	if len(missing) > 0 {
		return &ContractViolationError{Missing: missing}
	}
	return nil
}

// contractChecker is satisfied by model adapters that can verify their
// own completeness before a run binds them.
type contractChecker interface {
	CheckContract() error
}
