package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiframe/epiframe/document"
	"github.com/epiframe/epiframe/schema"
)

const modelSource = `
// Baseline death rate; fixed for the lifetime of a model.
mortality: float & >=0 @readonly()

infection_rate: float & >0 & <=1

delta_time: *0.2 | float & >0
`

const programSource = `
name: string
coverage: float & >=0 & <=1
`

func modelSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse("model", modelSource)
	require.NoError(t, err)
	return s
}

func programSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse("program", programSource)
	require.NoError(t, err)
	return s
}

func planDoc(t *testing.T, raw map[string]any) document.Value {
	t.Helper()
	doc, err := document.FromGo(raw)
	require.NoError(t, err)
	return doc
}

func rate(t *testing.T, inst *schema.Instance) float64 {
	t.Helper()
	v, ok := inst.Get("infection_rate")
	require.True(t, ok)
	return float64(v.(document.Float))
}

func TestParse_FoldsChangesChronologically(t *testing.T) {
	// Changes listed out of order; the fold sorts them.
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
			"changes": []any{
				map[string]any{"year": 2021, "month": 6, "params": map[string]any{"infection_rate": 0.3}},
				map[string]any{"year": 2020, "month": 1, "params": map[string]any{"infection_rate": 0.4}},
			},
		},
	})

	p, err := Parse(doc, modelSchema(t), nil)
	require.NoError(t, err)

	stages := p.Stages()
	require.Len(t, stages, 3)

	assert.Equal(t, 0, stages[0].Year)
	assert.Equal(t, 0, stages[0].Month)
	assert.Equal(t, 0.5, rate(t, stages[0].Params))

	assert.Equal(t, 2020, stages[1].Year)
	assert.Equal(t, 1, stages[1].Month)
	assert.Equal(t, 0.4, rate(t, stages[1].Params))

	assert.Equal(t, 2021, stages[2].Year)
	assert.Equal(t, 6, stages[2].Month)
	assert.Equal(t, 0.3, rate(t, stages[2].Params))

	// Untouched fields carry forward through every stage.
	for _, st := range stages {
		mort, ok := st.Params.Get("mortality")
		require.True(t, ok)
		assert.Equal(t, document.Float(0.01), mort)
		dt, ok := st.Params.Get("delta_time")
		require.True(t, ok)
		assert.Equal(t, document.Float(0.2), dt, "default filled and preserved")
	}
}

func TestParamsAt(t *testing.T) {
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
			"changes": []any{
				map[string]any{"year": 2020, "month": 3, "params": map[string]any{"infection_rate": 0.4}},
				map[string]any{"year": 2021, "month": 6, "params": map[string]any{"infection_rate": 0.3}},
			},
		},
	})
	p, err := Parse(doc, modelSchema(t), nil)
	require.NoError(t, err)

	cases := []struct {
		year, month int
		want        float64
	}{
		{2019, 12, 0.5}, // before any change
		{2020, 2, 0.5},  // same year, before the month
		{2020, 3, 0.4},  // change month itself
		{2020, 12, 0.4},
		{2021, 6, 0.3},
		{2030, 1, 0.3}, // far past the last change
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rate(t, p.ParamsAt(tc.year, tc.month)), "at %d-%02d", tc.year, tc.month)
	}
}

func TestParse_SameTimestampLaterWins(t *testing.T) {
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
			"changes": []any{
				map[string]any{"year": 2020, "month": 1, "params": map[string]any{"infection_rate": 0.4}},
				map[string]any{"year": 2020, "month": 1, "params": map[string]any{"infection_rate": 0.6}},
			},
		},
	})
	p, err := Parse(doc, modelSchema(t), nil)
	require.NoError(t, err)

	stages := p.Stages()
	require.Len(t, stages, 2, "same-timestamp changes fold into one stage")
	assert.Equal(t, 0.6, rate(t, stages[1].Params))
}

func TestParse_AggregatesViolationsAcrossSections(t *testing.T) {
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 2.0},
			"changes": []any{
				map[string]any{"year": 2020, "month": 1, "params": map[string]any{"infectionrate": 0.4}},
			},
		},
		"programs": []any{
			map[string]any{
				"first_year": 2020, "first_month": 1,
				"last_year": 2021, "last_month": 12,
				"interventions": []any{
					map[string]any{"name": "masks", "coverage": 1.5},
				},
			},
		},
	})

	_, err := Parse(doc, modelSchema(t), programSchema(t))
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 3)

	assert.Equal(t, "parameters.initial.infection_rate", ve.Violations[0].Field)
	assert.Equal(t, schema.CodeConstraint, ve.Violations[0].Code)

	assert.Equal(t, "parameters.changes[0].params.infectionrate", ve.Violations[1].Field)
	assert.Equal(t, schema.CodeUnknownField, ve.Violations[1].Code, "change params validate closed")

	assert.Equal(t, "programs[0].interventions[0].coverage", ve.Violations[2].Field)
	assert.Equal(t, schema.CodeConstraint, ve.Violations[2].Code)
}

func TestParse_ChangesCannotTouchReadOnlyFields(t *testing.T) {
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
			"changes": []any{
				map[string]any{"year": 2020, "month": 1, "params": map[string]any{"mortality": 0.9}},
			},
		},
	})

	_, err := Parse(doc, modelSchema(t), nil)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "parameters.changes[0].params.mortality", ve.Violations[0].Field)
	assert.Equal(t, schema.CodeUnknownField, ve.Violations[0].Code)
}

func TestParse_WindowConsistency(t *testing.T) {
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
		},
		"programs": []any{
			map[string]any{
				"first_year": 2021, "first_month": 1,
				"last_year": 2020, "last_month": 12,
				"interventions": []any{},
			},
		},
	})

	_, err := Parse(doc, modelSchema(t), programSchema(t))
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Violations)
	assert.Contains(t, ve.Violations[0].Field, "last_year")
	assert.Equal(t, schema.CodeConstraint, ve.Violations[0].Code)
}

func TestActivePrograms_WindowIsInclusive(t *testing.T) {
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
		},
		"programs": []any{
			map[string]any{
				"first_year": 2020, "first_month": 3,
				"last_year": 2021, "last_month": 6,
				"interventions": []any{
					map[string]any{"name": "masks", "coverage": 0.8},
				},
			},
			map[string]any{
				"first_year": 2021, "first_month": 1,
				"last_year": 2021, "last_month": 12,
				"interventions": []any{
					map[string]any{"name": "vaccination", "coverage": 0.6},
				},
			},
		},
	})
	p, err := Parse(doc, modelSchema(t), programSchema(t))
	require.NoError(t, err)

	assert.Empty(t, p.ActivePrograms(2020, 2), "before both windows")
	assert.Len(t, p.ActivePrograms(2020, 3), 1, "first window opens")
	assert.Len(t, p.ActivePrograms(2021, 6), 2, "both windows cover mid-2021")
	assert.Len(t, p.ActivePrograms(2021, 7), 1, "first window closed")
	assert.Empty(t, p.ActivePrograms(2022, 1))

	active := p.ActivePrograms(2021, 3)
	require.Len(t, active, 2)
	name, _ := active[0].Interventions[0].Get("name")
	assert.Equal(t, document.String("masks"), name, "declaration order preserved")
}

func TestParse_ProgramsRequireProgramSchema(t *testing.T) {
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
		},
		"programs": []any{
			map[string]any{
				"first_year": 2020, "first_month": 1,
				"last_year": 2020, "last_month": 12,
				"interventions": []any{},
			},
		},
	})
	_, err := Parse(doc, modelSchema(t), nil)
	require.Error(t, err)
	assert.False(t, schema.IsValidationError(err), "a missing schema is a caller mistake, not a document problem")
}

func TestParse_EnvelopeStructure(t *testing.T) {
	// Missing initial behaves like an empty one: every required model
	// field is reported under its full path.
	doc := planDoc(t, map[string]any{
		"parameters": map[string]any{},
	})
	_, err := Parse(doc, modelSchema(t), nil)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 2)
	assert.Equal(t, "parameters.initial.mortality", ve.Violations[0].Field)
	assert.Equal(t, schema.CodeMissingField, ve.Violations[0].Code)
	assert.Equal(t, "parameters.initial.infection_rate", ve.Violations[1].Field)

	// Month out of range.
	bad := planDoc(t, map[string]any{
		"parameters": map[string]any{
			"initial": map[string]any{"mortality": 0.01, "infection_rate": 0.5},
			"changes": []any{
				map[string]any{"year": 2020, "month": 13, "params": map[string]any{}},
			},
		},
	})
	_, err = Parse(bad, modelSchema(t), nil)
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Contains(t, ve.Violations[0].Field, "month")
	assert.Equal(t, schema.CodeConstraint, ve.Violations[0].Code)
}
