package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	// Wrapped ExitErrors still carry their code.
	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := WrapExitError(ExitCommandError, "context", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "context")
	assert.Contains(t, err.Error(), "root cause")
}

func TestFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]any{"valid": true}))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "ok", report.Status)
	assert.Nil(t, report.Error)
}

func TestFormatter_FailureJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Failure(nil, "E002", "file not found", nil))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "error", report.Status)
	require.NotNil(t, report.Error)
	assert.Equal(t, "E002", report.Error.Code)
	assert.Equal(t, "file not found", report.Error.Message)
}

func TestFormatter_FailureText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Failure(nil, "E002", "file not found", nil))
	assert.Contains(t, buf.String(), "Error [E002]: file not found")
}

func TestFormatter_VerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer

	silent := &OutputFormatter{Format: "text", Writer: &out, Verbose: false}
	silent.VerboseLog("hidden %d", 1)
	assert.Empty(t, out.String())

	// Verbose output goes to the error writer so JSON stays parseable.
	chatty := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}
	chatty.VerboseLog("loading %s", "file")
	assert.Empty(t, out.String())
	assert.Equal(t, "loading file\n", errOut.String())
}
