package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/epiframe/epiframe/document"
	"github.com/epiframe/epiframe/schema"
)

// envelopeSource is the structural schema for plan documents. Embedded
// parameter sets are open structs here; their contents are validated
// against the model, update, and program schemas separately so each
// violation carries its own full path.
const envelopeSource = `
parameters: {
	initial: {...}
	changes?: [...{
		year:   int & >=0
		month:  int & >=1 & <=12
		params: {...}
	}]
}
programs?: [...{
	first_year:  int & >=0
	first_month: int & >=1 & <=12
	last_year:   int & >=first_year
	last_month:  int & >=1 & <=12
	interventions: [...{...}]
}]
`

var envelopeSchema = schema.MustParse("plan", envelopeSource)

// Stage is a complete parameter set effective from a point in the
// chronology. Stage 0 is the initial set; its Year and Month are zero.
type Stage struct {
	Year   int
	Month  int
	Params *schema.Instance
}

// Program is an intervention program with an inclusive activity
// window.
type Program struct {
	FirstYear     int
	FirstMonth    int
	LastYear      int
	LastMonth     int
	Interventions []*schema.Instance
}

// ActiveAt reports whether the program's window covers year/month.
func (p Program) ActiveAt(year, month int) bool {
	after := year > p.FirstYear || (year == p.FirstYear && month >= p.FirstMonth)
	before := year < p.LastYear || (year == p.LastYear && month <= p.LastMonth)
	return after && before
}

// Plan is a parsed staged configuration: the chronological parameter
// stages and the intervention programs.
type Plan struct {
	stages   []Stage
	programs []Program
}

// Stages returns the chronological parameter stages, stage 0 first.
// Stages with equal year and month have been folded already, later
// changes winning, so timestamps are strictly increasing.
func (p *Plan) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// ParamsAt returns the parameter set effective at year/month: the last
// stage at or before that point. The initial stage covers everything
// earlier than the first change.
func (p *Plan) ParamsAt(year, month int) *schema.Instance {
	current := p.stages[0].Params
	for _, st := range p.stages[1:] {
		if st.Year > year || (st.Year == year && st.Month > month) {
			break
		}
		current = st.Params
	}
	return current
}

// Programs returns all intervention programs in declaration order.
func (p *Plan) Programs() []Program {
	out := make([]Program, len(p.programs))
	copy(out, p.programs)
	return out
}

// ActivePrograms returns the programs whose window covers year/month,
// in declaration order.
func (p *Plan) ActivePrograms(year, month int) []Program {
	var out []Program
	for _, prog := range p.programs {
		if prog.ActiveAt(year, month) {
			out = append(out, prog)
		}
	}
	return out
}

// Parse validates a plan document and builds its stages.
//
// The envelope structure (timestamps, window consistency) is checked
// first; a structurally broken document cannot be navigated further
// and its violations are returned alone. With the structure sound, the
// initial parameters validate against modelSchema, each change's
// params against the derived update schema in closed mode, and each
// program intervention against programSchema. All violations from that
// pass are aggregated into a single error, each prefixed with its
// envelope path. opts apply to the initial parameter validation.
func Parse(doc document.Value, modelSchema, programSchema *schema.Schema, opts ...schema.Option) (*Plan, error) {
	env, err := schema.Validate(doc, envelopeSchema)
	if err != nil {
		return nil, err
	}
	envDoc := env.Document()

	updateSchema, err := modelSchema.Update()
	if err != nil {
		return nil, fmt.Errorf("derive update schema for %q: %w", modelSchema.Name(), err)
	}

	var violations []schema.Violation
	collect := func(prefix string, err error) bool {
		if err == nil {
			return true
		}
		var ve *schema.ValidationError
		if !errors.As(err, &ve) {
			violations = append(violations, schema.Violation{
				Field:   prefix,
				Code:    schema.CodeMalformedDocument,
				Message: err.Error(),
			})
			return false
		}
		for _, v := range ve.Violations {
			v.Field = prefix + "." + v.Field
			violations = append(violations, v)
		}
		return false
	}

	parameters := envDoc["parameters"].(document.Object)

	initial, err := schema.Validate(parameters["initial"], modelSchema, opts...)
	collect("parameters.initial", err)

	type change struct {
		year, month int
		params      *schema.Instance
	}
	var changes []change
	if raw, ok := parameters["changes"].(document.List); ok {
		for i, elem := range raw {
			obj := elem.(document.Object)
			inst, err := schema.Validate(obj["params"], updateSchema, schema.Closed())
			if !collect(fmt.Sprintf("parameters.changes[%d].params", i), err) {
				continue
			}
			changes = append(changes, change{
				year:   int(obj["year"].(document.Int)),
				month:  int(obj["month"].(document.Int)),
				params: inst,
			})
		}
	}

	var programs []Program
	if raw, ok := envDoc["programs"].(document.List); ok && len(raw) > 0 {
		if programSchema == nil {
			return nil, fmt.Errorf("plan declares programs but no program schema was supplied")
		}
		for i, elem := range raw {
			obj := elem.(document.Object)
			prog := Program{
				FirstYear:  int(obj["first_year"].(document.Int)),
				FirstMonth: int(obj["first_month"].(document.Int)),
				LastYear:   int(obj["last_year"].(document.Int)),
				LastMonth:  int(obj["last_month"].(document.Int)),
			}
			for j, iv := range obj["interventions"].(document.List) {
				inst, err := schema.Validate(iv, programSchema)
				if !collect(fmt.Sprintf("programs[%d].interventions[%d]", i, j), err) {
					continue
				}
				prog.Interventions = append(prog.Interventions, inst)
			}
			programs = append(programs, prog)
		}
	}

	if len(violations) > 0 {
		return nil, &schema.ValidationError{Schema: "plan", Violations: violations}
	}

	// Chronological fold. The sort is stable so same-timestamp changes
	// keep declaration order and the later one wins.
	sort.SliceStable(changes, func(a, b int) bool {
		if changes[a].year != changes[b].year {
			return changes[a].year < changes[b].year
		}
		return changes[a].month < changes[b].month
	})

	stages := []Stage{{Params: initial}}
	current := initial
	for _, ch := range changes {
		next, err := schema.Apply(current, ch.params.Document())
		if err != nil {
			return nil, fmt.Errorf("apply change at %d-%02d: %w", ch.year, ch.month, err)
		}
		current = next
		last := &stages[len(stages)-1]
		if last.Year == ch.year && last.Month == ch.month && len(stages) > 1 {
			last.Params = current
			continue
		}
		stages = append(stages, Stage{Year: ch.year, Month: ch.month, Params: current})
	}

	return &Plan{stages: stages, programs: programs}, nil
}
