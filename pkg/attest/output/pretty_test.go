package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/attest/pkg/attest/types"
)

func TestPrettyFormatter_Format_BasicOutput(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:   "verify",
		Root: "/data/archive",
		Entries: []types.Entry{
			{Dir: ".", Name: "report.pdf", Class: types.ClassModified},
			{Dir: "photos", Name: "new.jpg", Class: types.ClassAdded},
		},
		Unchanged: 40,
		Stats: types.Stats{
			DirsVisited: 3,
			FilesListed: 43,
			BytesHashed: 1 << 20,
			Elapsed:     2 * time.Second,
		},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()

	// Header carries run metadata.
	assert.Contains(t, output, "verify")
	assert.Contains(t, output, "/data/archive")
	assert.Contains(t, output, "43 files in 3 dirs")

	// Entries are listed with their classification.
	assert.Contains(t, output, "modified")
	assert.Contains(t, output, "report.pdf")
	assert.Contains(t, output, "added")
	assert.Contains(t, output, "photos/new.jpg")

	// Modified files fail the run.
	assert.Contains(t, output, "FAIL")
	assert.NotContains(t, output, "PASS")
}

func TestPrettyFormatter_Format_CleanRun(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:        "verify",
		Root:      "/data",
		Unchanged: 7,
		Stats:     types.Stats{Elapsed: time.Second},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "All tracked files match their records")
	assert.Contains(t, output, "PASS")
	assert.NotContains(t, output, "FAIL")
}

func TestPrettyFormatter_Format_AddedOnlyPasses(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:   "verify",
		Root: "/data",
		Entries: []types.Entry{
			{Dir: ".", Name: "new.txt", Class: types.ClassAdded},
		},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	// Added files are warnings, not failures.
	assert.Contains(t, buf.String(), "PASS")
}

func TestPrettyFormatter_Format_UntrackedDirs(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:            "verify",
		Root:          "/data",
		UntrackedDirs: []string{"incoming"},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "untracked")
	assert.Contains(t, output, "incoming/")
	assert.Contains(t, output, "no sumfile")
}

func TestPrettyFormatter_Format_ErrorDetail(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:   "verify",
		Root: "/data",
		Entries: []types.Entry{
			{Dir: ".", Name: "locked.bin", Class: types.ClassError, Detail: "permission denied"},
		},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "permission denied")
	assert.Contains(t, buf.String(), "FAIL")
}

func TestPrettyFormatter_Registration(t *testing.T) {
	formatter, err := Get("pretty")
	require.NoError(t, err)
	assert.IsType(t, &PrettyFormatter{}, formatter)
}
