// Package sim runs simulation models inside a generic container.
//
// A model is anything satisfying the Model contract: Init builds the
// first state from validated parameters, Step produces the next state,
// Observe projects a state into a recorded observation. The container
// owns the run lifecycle as a phase machine (Unconfigured, Validated,
// Running, Completed, with Failed terminal from any non-terminal
// phase) and accumulates one observation per state, the initial state
// included, into a History.
//
// Execution is single-threaded and synchronous. The container never
// spawns goroutines; independent containers may run in parallel
// because each exclusively owns its parameters, state, and history.
package sim
