package sim

// StopCondition decides when a run is complete. Done is consulted
// before each step with the number of steps taken so far and the
// current state; returning true completes the run with the current
// history.
type StopCondition[S any] interface {
	Done(steps int, state S) bool
}

// StopFunc adapts a plain function into a StopCondition.
type StopFunc[S any] func(steps int, state S) bool

func (f StopFunc[S]) Done(steps int, state S) bool {
	return f(steps, state)
}

// Steps stops after exactly n steps. Negative counts behave like zero:
// the run completes with only the initial observation.
func Steps[S any](n int) StopCondition[S] {
	if n < 0 {
		n = 0
	}
	return StopFunc[S](func(steps int, _ S) bool {
		return steps >= n
	})
}

// Until stops once pred holds on the current state. The predicate sees
// the initial state too, so a run may complete without stepping at all.
// Pair open-ended predicates with WithMaxSteps to bound runaway models.
func Until[S any](pred func(S) bool) StopCondition[S] {
	return StopFunc[S](func(_ int, state S) bool {
		return pred(state)
	})
}
