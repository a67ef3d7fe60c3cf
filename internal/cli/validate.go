package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/epiframe/epiframe/schema"
)

// ValidationResult holds a validate run's outcome for reporting.
type ValidationResult struct {
	Valid       bool               `json:"valid"`
	Schema      string             `json:"schema,omitempty"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	Warnings    []schema.Warning   `json:"warnings,omitempty"`
	Violations  []schema.Violation `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var closed bool

	cmd := &cobra.Command{
		Use:   "validate <schema.cue> <document>",
		Short: "Validate a parameter document against a schema",
		Long: `Validate a JSON or YAML parameter document against a CUE schema.

Reports every violation at once, in field declaration order, rather
than stopping at the first. In open mode (the default) unknown fields
are ignored with a close-match warning; --closed rejects them.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], args[1], closed, cmd)
		},
	}

	cmd.Flags().BoolVar(&closed, "closed", false, "reject fields the schema does not declare")

	return cmd
}

func runValidate(opts *RootOptions, schemaPath, docPath string, closed bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	s, err := LoadSchema(schemaPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	doc, err := LoadDocument(docPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	var vopts []schema.Option
	if closed {
		vopts = append(vopts, schema.Closed())
	}

	formatter.VerboseLog("validating %s against schema %q", docPath, s.Name())

	inst, err := schema.Validate(doc, s, vopts...)
	if err != nil {
		var ve *schema.ValidationError
		if !errors.As(err, &ve) {
			return reportLoadError(formatter, WrapExitError(ExitCommandError, ErrCodeGeneric, err))
		}
		return reportViolations(formatter, s.Name(), ve.Violations)
	}

	result := ValidationResult{
		Valid:       true,
		Schema:      s.Name(),
		Fingerprint: inst.Fingerprint(),
		Warnings:    inst.Warnings(),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ document valid against %q\n", s.Name())
	fmt.Fprintf(formatter.Writer, "  fingerprint: %s\n", inst.Fingerprint())
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s: %s\n", w.Field, w.Message)
	}
	return nil
}

// reportLoadError renders a command-level failure (unreadable input,
// invalid schema) and passes the ExitError through for the exit code.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_ = formatter.Failure(nil, ErrCodeGeneric, exitErr.Error(), nil)
		return exitErr
	}
	_ = formatter.Failure(nil, ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}

// reportViolations renders an aggregated violation list and returns the
// validation-failure exit code.
func reportViolations(formatter *OutputFormatter, schemaName string, violations []schema.Violation) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:      false,
			Schema:     schemaName,
			Violations: violations,
		}
		report := Report{
			Status: "error",
			Data:   result,
			Error: &ReportError{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("validation failed with %d violation(s)", len(violations)),
			},
		}
		enc := jsonEncoder(formatter)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(violations)))
	}

	fmt.Fprintln(formatter.Writer, "✗ validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, v := range violations {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", v.Code, v.Field, v.Message)
		if v.Expected != "" {
			fmt.Fprintf(formatter.Writer, "      expected %s, got %s\n", v.Expected, v.Actual)
		}
	}
	fmt.Fprintln(formatter.Writer)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(violations)))
}
