package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planModelSource = `
population: int & >=1

infection_rate: float & >0 & <=1
`

const planProgramSource = `
name: string

coverage: float & >=0 & <=1
`

const planDocJSON = `{
  "parameters": {
    "initial": {"population": 1000, "infection_rate": 0.5},
    "changes": [
      {"year": 2020, "month": 3, "params": {"infection_rate": 0.4}},
      {"year": 2021, "month": 1, "params": {"infection_rate": 0.3}}
    ]
  },
  "programs": [
    {
      "first_year": 2020, "first_month": 1,
      "last_year": 2021, "last_month": 12,
      "interventions": [{"name": "masks", "coverage": 0.8}]
    }
  ]
}`

func TestPlan_JSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFixture(t, dir, "model.cue", planModelSource)
	programPath := writeFixture(t, dir, "program.cue", planProgramSource)
	docPath := writeFixture(t, dir, "plan.json", planDocJSON)

	out, err := runCLI(t, "--format", "json", "plan",
		"--program-schema", programPath, schemaPath, docPath)
	require.NoError(t, err)

	report, data := decodeReport(t, out)
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(1), data["programs"])

	stages := data["stages"].([]any)
	require.Len(t, stages, 3)

	initial := stages[0].(map[string]any)
	assert.Equal(t, float64(0), initial["year"])
	params := initial["params"].(map[string]any)
	assert.Equal(t, 0.5, params["infection_rate"])

	last := stages[2].(map[string]any)
	assert.Equal(t, float64(2021), last["year"])
	assert.Equal(t, 0.3, last["params"].(map[string]any)["infection_rate"])
	assert.Len(t, last["fingerprint"], 64)
}

func TestPlan_Text(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFixture(t, dir, "model.cue", planModelSource)
	programPath := writeFixture(t, dir, "program.cue", planProgramSource)
	docPath := writeFixture(t, dir, "plan.yaml", `
parameters:
  initial:
    population: 1000
    infection_rate: 0.5
  changes:
    - year: 2020
      month: 3
      params:
        infection_rate: 0.4
`)

	out, err := runCLI(t, "plan", "--program-schema", programPath, schemaPath, docPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ plan valid: 2 stage(s), 0 program(s)")
	assert.Contains(t, out, "initial")
	assert.Contains(t, out, "2020-03")
}

func TestPlan_ViolationsArePathPrefixed(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFixture(t, dir, "model.cue", planModelSource)
	docPath := writeFixture(t, dir, "plan.json", `{
  "parameters": {
    "initial": {"population": 0, "infection_rate": 0.5},
    "changes": [
      {"year": 2020, "month": 3, "params": {"infectionrate": 0.4}}
    ]
  }
}`)

	out, err := runCLI(t, "--format", "json", "plan", schemaPath, docPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, data := decodeReport(t, out)
	violations := data["violations"].([]any)
	require.Len(t, violations, 2)
	assert.Equal(t, "parameters.initial.population",
		violations[0].(map[string]any)["field"])
	assert.Equal(t, "parameters.changes[0].params.infectionrate",
		violations[1].(map[string]any)["field"])
}

func TestPlan_ProgramsWithoutSchemaIsCommandError(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFixture(t, dir, "model.cue", planModelSource)
	docPath := writeFixture(t, dir, "plan.json", planDocJSON)

	_, err := runCLI(t, "plan", schemaPath, docPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
