package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/attest/pkg/attest/types"
)

// mockFormatter is a simple formatter for testing the registry
type mockFormatter struct {
	formatCalled bool
}

func (m *mockFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	m.formatCalled = true
	w.WriteString("mock output")
	return nil
}

func TestFormatterInterface(t *testing.T) {
	var f Formatter = &mockFormatter{}
	var buf bytes.Buffer
	report := &types.Report{}

	err := f.Format(&buf, report)
	require.NoError(t, err)
	assert.Equal(t, "mock output", buf.String())
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	// Create a fresh registry for testing
	reg := NewRegistry()

	mockFactory := func() Formatter {
		return &mockFormatter{}
	}
	reg.Register("mock", mockFactory)

	formatter, err := reg.Get("mock")
	require.NoError(t, err)
	assert.NotNil(t, formatter)

	var buf bytes.Buffer
	err = formatter.Format(&buf, &types.Report{})
	require.NoError(t, err)
	assert.Equal(t, "mock output", buf.String())
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestRegistry_Available_Sorted(t *testing.T) {
	reg := NewRegistry()

	mockFactory := func() Formatter {
		return &mockFormatter{}
	}

	// Register in non-alphabetical order
	reg.Register("zeta", mockFactory)
	reg.Register("alpha", mockFactory)
	reg.Register("beta", mockFactory)

	available := reg.Available()
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, available)
}

func TestDefaultRegistry_BuiltinFormatters(t *testing.T) {
	// All built-in formatters register themselves at init time.
	available := Available()
	assert.Contains(t, available, "pretty")
	assert.Contains(t, available, "plain")
	assert.Contains(t, available, "json")
	assert.Contains(t, available, "paths")
}
