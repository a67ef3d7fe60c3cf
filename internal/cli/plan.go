package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/epiframe/epiframe/document"
	"github.com/epiframe/epiframe/plan"
	"github.com/epiframe/epiframe/schema"
)

// PlanStage is one stage of a parsed plan for reporting.
type PlanStage struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Fingerprint string          `json:"fingerprint"`
	Params      document.Object `json:"params"`
}

// PlanResult holds a parsed plan's stages and program count.
type PlanResult struct {
	Valid      bool               `json:"valid"`
	Stages     []PlanStage        `json:"stages,omitempty"`
	Programs   int                `json:"programs"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	var programSchemaPath string

	cmd := &cobra.Command{
		Use:   "plan <schema.cue> <plan-document>",
		Short: "Validate a staged parameter plan and show its stages",
		Long: `Validate a staged parameter plan against a model schema and fold its
changes into the chronological sequence of complete parameter sets.

The plan's initial parameters validate against the model schema; each
change's params against the derived update schema; intervention
programs, when present, against the schema given by --program-schema.
Every violation across all sections is reported at once with its full
path.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], args[1], programSchemaPath, cmd)
		},
	}

	cmd.Flags().StringVar(&programSchemaPath, "program-schema", "", "CUE schema for intervention programs")

	return cmd
}

func runPlan(opts *RootOptions, schemaPath, planPath, programSchemaPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	modelSchema, err := LoadSchema(schemaPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	var programSchema *schema.Schema
	if programSchemaPath != "" {
		programSchema, err = LoadSchema(programSchemaPath)
		if err != nil {
			return reportLoadError(formatter, err)
		}
	}
	doc, err := LoadDocument(planPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	formatter.VerboseLog("parsing plan %s against schema %q", planPath, modelSchema.Name())

	p, err := plan.Parse(doc, modelSchema, programSchema)
	if err != nil {
		var ve *schema.ValidationError
		if !errors.As(err, &ve) {
			return reportLoadError(formatter, WrapExitError(ExitCommandError, ErrCodeGeneric, err))
		}
		return reportViolations(formatter, modelSchema.Name(), ve.Violations)
	}

	result := PlanResult{
		Valid:    true,
		Programs: len(p.Programs()),
	}
	for _, st := range p.Stages() {
		result.Stages = append(result.Stages, PlanStage{
			Year:        st.Year,
			Month:       st.Month,
			Fingerprint: st.Params.Fingerprint(),
			Params:      st.Params.Document(),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ plan valid: %d stage(s), %d program(s)\n", len(result.Stages), result.Programs)
	for _, st := range result.Stages {
		if st.Year == 0 && st.Month == 0 {
			fmt.Fprintf(formatter.Writer, "  initial            %s\n", st.Fingerprint[:12])
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %d-%02d            %s\n", st.Year, st.Month, st.Fingerprint[:12])
	}
	return nil
}
