package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/epiframe/epiframe/document"
	"github.com/epiframe/epiframe/schema"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E002" // Path not found or unreadable
	ErrCodeBadExtension  = "E003" // Unsupported document format
	ErrCodeSchemaInvalid = "E004" // Schema source did not parse
	ErrCodeDocInvalid    = "E005" // Document did not parse
	ErrCodeValidation    = "E100" // Document failed validation
)

// LoadSchema reads a CUE schema from a file. The schema name is the
// file's base name without extension.
func LoadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: read schema %s", ErrCodeNotFound, path), err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := schema.Parse(name, string(data))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: invalid schema %s", ErrCodeSchemaInvalid, path), err)
	}
	return s, nil
}

// LoadDocument reads a configuration document from a JSON or YAML
// file, decided by extension. JSON goes through document.FromJSON so
// integers stay integers; YAML decodes to plain Go shapes first.
func LoadDocument(path string) (document.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: read document %s", ErrCodeNotFound, path), err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		doc, err := document.FromJSON(data)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: parse JSON document %s", ErrCodeDocInvalid, path), err)
		}
		return doc, nil

	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: parse YAML document %s", ErrCodeDocInvalid, path), err)
		}
		doc, err := document.FromGo(raw)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: convert YAML document %s", ErrCodeDocInvalid, path), err)
		}
		return doc, nil

	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: unsupported document format %q (want .json, .yaml or .yml)", ErrCodeBadExtension, ext))
	}
}
