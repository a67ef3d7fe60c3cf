package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/epiframe/epiframe/document"
	"github.com/epiframe/epiframe/schema"
)

// Phase is a container lifecycle state.
type Phase int

const (
	// Unconfigured is the phase of a freshly built container.
	Unconfigured Phase = iota

	// Validated means parameters passed validation and decoded into P.
	Validated

	// Running means the step loop is active.
	Running

	// Completed is terminal: the stopping condition held.
	Completed

	// Failed is terminal: validation, initialization, a step, the
	// context, or a quota failed. Reachable from any non-terminal phase.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Unconfigured:
		return "unconfigured"
	case Validated:
		return "validated"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type config struct {
	logger   *slog.Logger
	maxSteps int
}

// Option configures a Container at construction.
type Option func(*config)

// WithLogger routes the container's phase and failure logging through
// the given logger instead of slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMaxSteps caps the number of steps a run may take. The cap is an
// opt-in guard for predicate stopping conditions on models that might
// never satisfy them; runs are unlimited by default. Hitting the cap
// fails the run with a StepsExceededError.
func WithMaxSteps(n int) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// Container owns one simulation run end to end: parameter validation,
// model execution, and history accumulation.
//
// The lifecycle is a one-way phase machine. Configure moves
// Unconfigured to Validated, Run moves Validated through Running to
// Completed, and any failure lands in Failed. Containers are
// single-run: re-configuring or re-running is a PhaseError, and the
// container's phase is unchanged by the rejected call.
//
// A container is not safe for concurrent use. Run independent
// containers in parallel instead; each exclusively owns its
// parameters, state, and history.
type Container[P, S, O any] struct {
	id       string
	phase    Phase
	params   P
	instance *schema.Instance
	history  *History[O]
	logger   *slog.Logger
	maxSteps int
}

// New builds an Unconfigured container with a fresh run ID.
func New[P, S, O any](opts ...Option) *Container[P, S, O] {
	cfg := config{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Container[P, S, O]{
		id:       uuid.NewString(),
		phase:    Unconfigured,
		history:  &History[O]{},
		logger:   cfg.logger,
		maxSteps: cfg.maxSteps,
	}
}

// ID returns the container's run identifier.
func (c *Container[P, S, O]) ID() string { return c.id }

// Phase returns the current lifecycle phase.
func (c *Container[P, S, O]) Phase() Phase { return c.phase }

// Params returns the decoded parameter struct. Zero until Validated.
func (c *Container[P, S, O]) Params() P { return c.params }

// Instance returns the validated parameter instance, or nil before
// Configure succeeds.
func (c *Container[P, S, O]) Instance() *schema.Instance { return c.instance }

// History returns the run's observation history. It grows only while
// the container is Running and is sealed at Completed or Failed.
func (c *Container[P, S, O]) History() *History[O] { return c.history }

// Configure validates doc against s, fills defaults, and decodes the
// result into the parameter struct P.
//
// Validation failure is terminal: the container moves to Failed and
// the aggregated schema.ValidationError is returned. A schema field
// that P does not declare is a ContractViolationError, also terminal.
// Configuring any phase but Unconfigured is a PhaseError and leaves
// the container as it was.
func (c *Container[P, S, O]) Configure(doc document.Value, s *schema.Schema, opts ...schema.Option) error {
	if c.phase != Unconfigured {
		return &PhaseError{Op: "configure", Phase: c.phase}
	}

	inst, err := schema.Validate(doc, s, opts...)
	if err != nil {
		c.fail("validation failed", err)
		return err
	}

	var params P
	if err := inst.Decode(&params); err != nil {
		cerr := &ContractViolationError{
			Reason: fmt.Sprintf("parameter struct %T does not cover schema %q: %v", params, s.Name(), err),
		}
		c.fail("parameter decode failed", cerr)
		return cerr
	}

	c.params = params
	c.instance = inst
	c.setPhase(Validated)
	return nil
}

// Run executes the model until stop holds, a step fails, ctx is done,
// or the WithMaxSteps quota trips.
//
// The initial observation is recorded before any step runs, so a run
// of n steps yields a history of n+1 records. On success the container
// is Completed; on any failure it is Failed and the history up to the
// failure is preserved and sealed. The returned history is the same
// one History() exposes.
func (c *Container[P, S, O]) Run(ctx context.Context, model Model[P, S, O], stop StopCondition[S]) (*History[O], error) {
	if c.phase != Validated {
		return nil, &PhaseError{Op: "run", Phase: c.phase}
	}
	if model == nil {
		err := &ContractViolationError{Reason: "model is nil"}
		c.fail("bind failed", err)
		return nil, err
	}
	if stop == nil {
		err := &ContractViolationError{Reason: "stopping condition is nil"}
		c.fail("bind failed", err)
		return nil, err
	}
	if checker, ok := model.(contractChecker); ok {
		if err := checker.CheckContract(); err != nil {
			c.fail("bind failed", err)
			return nil, err
		}
	}

	state, err := model.Init(c.params)
	if err != nil {
		ierr := &InitializationError{Err: err}
		c.fail("initialization failed", ierr)
		return nil, ierr
	}

	c.setPhase(Running)
	c.logger.Info("run starting",
		"run_id", c.id,
		"schema", c.instance.Schema().Name(),
		"fingerprint", c.instance.Fingerprint(),
	)

	c.history.append(model.Observe(state))
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			c.fail("context cancelled", err)
			return c.history, err
		}
		if stop.Done(steps, state) {
			break
		}
		if c.maxSteps > 0 && steps >= c.maxSteps {
			serr := &StepsExceededError{Steps: steps, Limit: c.maxSteps}
			c.fail("quota exceeded", serr)
			return c.history, serr
		}

		next, err := model.Step(state, c.params)
		if err != nil {
			serr := &StepError{Step: steps + 1, Err: err}
			c.fail("step failed", serr)
			return c.history, serr
		}
		state = next
		steps++
		c.history.append(model.Observe(state))
	}

	c.history.seal()
	c.setPhase(Completed)
	c.logger.Info("run completed",
		"run_id", c.id,
		"steps", steps,
		"records", c.history.Len(),
	)
	return c.history, nil
}

func (c *Container[P, S, O]) setPhase(next Phase) {
	c.logger.Debug("phase transition",
		"run_id", c.id,
		"from", c.phase.String(),
		"to", next.String(),
	)
	c.phase = next
}

func (c *Container[P, S, O]) fail(reason string, err error) {
	c.logger.Error("run failed",
		"run_id", c.id,
		"phase", c.phase.String(),
		"reason", reason,
		"error", err,
	)
	c.history.seal()
	c.phase = Failed
}
