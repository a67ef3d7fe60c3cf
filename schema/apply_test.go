package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiframe/epiframe/document"
)

func endemicInstance(t *testing.T) *Instance {
	t.Helper()
	s, err := Parse("endemic", endemicSource)
	require.NoError(t, err)
	doc, err := document.FromJSON([]byte(`{
		"mortality": 0.01,
		"infection_rate": 0.3,
		"seeding": {"infected": 5}
	}`))
	require.NoError(t, err)
	inst, err := Validate(doc, s)
	require.NoError(t, err)
	return inst
}

func TestApply_SparseOverlay(t *testing.T) {
	base := endemicInstance(t)

	update, _ := document.FromJSON([]byte(`{"infection_rate": 0.5, "seeding": {"region": "north"}}`))
	next, err := Apply(base, update.(document.Object))
	require.NoError(t, err)

	got := next.Document()
	assert.Equal(t, document.Float(0.5), got["infection_rate"], "supplied field overlaid")
	assert.Equal(t, document.Float(0.2), got["delta_time"], "unset field untouched")
	assert.Equal(t, document.Float(0.01), got["mortality"], "read-only field carried from base")
	assert.Equal(t, document.String("north"), got["seeding"].(document.Object)["region"])
	assert.Equal(t, document.Int(5), got["seeding"].(document.Object)["infected"], "nested merge keeps siblings")

	// The base is untouched.
	assert.Equal(t, document.Float(0.3), base.Document()["infection_rate"])
}

func TestApply_LaterChangesWin(t *testing.T) {
	base := endemicInstance(t)

	first, _ := document.FromJSON([]byte(`{"infection_rate": 0.4}`))
	second, _ := document.FromJSON([]byte(`{"infection_rate": 0.6}`))

	mid, err := Apply(base, first.(document.Object))
	require.NoError(t, err)
	final, err := Apply(mid, second.(document.Object))
	require.NoError(t, err)

	assert.Equal(t, document.Float(0.6), final.Document()["infection_rate"])
}

func TestApply_RejectsReadOnlyChange(t *testing.T) {
	base := endemicInstance(t)

	update, _ := document.FromJSON([]byte(`{"mortality": 0.5}`))
	_, err := Apply(base, update.(document.Object))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "mortality", ve.Violations[0].Field)
	assert.Equal(t, CodeUnknownField, ve.Violations[0].Code, "read-only fields do not exist in the update schema")
}

func TestApply_RejectsTypo(t *testing.T) {
	base := endemicInstance(t)

	update, _ := document.FromJSON([]byte(`{"infectionrate": 0.5}`))
	_, err := Apply(base, update.(document.Object))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, CodeUnknownField, ve.Violations[0].Code)
}

func TestApply_RevalidatesConstraints(t *testing.T) {
	base := endemicInstance(t)

	update, _ := document.FromJSON([]byte(`{"infection_rate": 2.0}`))
	_, err := Apply(base, update.(document.Object))
	assert.True(t, IsValidationError(err))
}
