package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/epiframe/epiframe/schema"
)

// DescribeResult holds a schema's field declarations for reporting.
type DescribeResult struct {
	Schema string         `json:"schema"`
	Fields []schema.Field `json:"fields"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "describe <schema.cue>",
		Short: "List a schema's field declarations",
		Long: `List a schema's fields: kind, requiredness, defaults, read-only
markers, and nested structure.

With --update the derived update schema is described instead: the
shape of documents accepted as sparse parameter changes, with
read-only fields removed and nothing required.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], update, cmd)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "describe the derived update schema")

	return cmd
}

func runDescribe(opts *RootOptions, schemaPath string, update bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := LoadSchema(schemaPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	if update {
		s, err = s.Update()
		if err != nil {
			return reportLoadError(formatter, WrapExitError(ExitCommandError, ErrCodeSchemaInvalid, err))
		}
	}

	result := DescribeResult{Schema: s.Name(), Fields: s.Describe()}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "schema %q\n", s.Name())
	printFields(formatter, result.Fields, 1)
	return nil
}

func printFields(formatter *OutputFormatter, fields []schema.Field, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		var marks []string
		if f.Required {
			marks = append(marks, "required")
		}
		if f.ReadOnly {
			marks = append(marks, "read-only")
		}
		if f.Default != nil {
			marks = append(marks, fmt.Sprintf("default %v", f.Default))
		}
		line := fmt.Sprintf("%s%s: %s", indent, f.Name, f.Kind)
		if len(marks) > 0 {
			line += " (" + strings.Join(marks, ", ") + ")"
		}
		fmt.Fprintln(formatter.Writer, line)
		if f.Doc != "" {
			fmt.Fprintf(formatter.Writer, "%s  # %s\n", indent, strings.TrimSpace(f.Doc))
		}
		if len(f.Fields) > 0 {
			printFields(formatter, f.Fields, depth+1)
		}
	}
}
