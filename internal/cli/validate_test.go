package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefinition(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{demoDefinition()})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ definition valid")
	assert.Contains(t, buf.String(), "2 partition(s)")
	assert.Contains(t, buf.String(), "order=least_significant_first")
}

func TestValidate_ValidDefinitionJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{demoDefinition()})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string         `json:"status"`
		Data   validateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Partitions)
	assert.Equal(t, []string{"tock", "top"}, resp.Data.Pulses)
}

func TestValidate_MissingFile(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_InvalidDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
order: least_significant_first
partitions:
  - {name: sec, modulus: 0}
`), 0o644))

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "ZERO_MODULUS")
}

func TestValidate_MissingOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noorder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
partitions:
  - {name: sec, modulus: 60}
`), 0o644))

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING_ORDER")
}
