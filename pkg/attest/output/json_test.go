package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/attest/pkg/attest/types"
)

func TestJSONFormatter_Format_BasicOutput(t *testing.T) {
	formatter := &JSONFormatter{}
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
			FilesHashed: 41,
			BytesHashed: 1 << 20,
			Elapsed:     2 * time.Second,
		},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)

	assert.Equal(t, "verify", parsed["op"])
	assert.Equal(t, "/data/archive", parsed["root"])
	assert.Equal(t, false, parsed["passed"])

	entries := parsed["entries"].([]interface{})
	require.Len(t, entries, 2)

	first := entries[0].(map[string]interface{})
	assert.Equal(t, "report.pdf", first["path"])
	assert.Equal(t, "modified", first["class"])

	second := entries[1].(map[string]interface{})
	assert.Equal(t, "photos/new.jpg", second["path"])
	assert.Equal(t, "added", second["class"])

	summary := parsed["summary"].(map[string]interface{})
	assert.Equal(t, float64(40), summary["unchanged"])
	assert.Equal(t, float64(1), summary["modified"])
	assert.Equal(t, float64(1), summary["added"])
	assert.Equal(t, float64(0), summary["missing"])
	assert.Equal(t, float64(3), summary["dirs_visited"])
}

func TestJSONFormatter_Format_CleanRunPasses(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:        "verify",
		Root:      "/data",
		Unchanged: 7,
		Stats:     types.Stats{Elapsed: time.Second},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Equal(t, true, parsed["passed"])
	entries := parsed["entries"].([]interface{})
	assert.Len(t, entries, 0)
}

func TestJSONFormatter_Format_UntrackedDirs(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:            "verify",
		Root:          "/data",
		UntrackedDirs: []string{"incoming", "tmp"},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	dirs := parsed["untracked_dirs"].([]interface{})
	assert.Equal(t, []interface{}{"incoming", "tmp"}, dirs)
}

func TestJSONFormatter_Format_SpecialCharacters(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	report := &types.Report{
		Op:   "verify",
		Root: "/data",
		Entries: []types.Entry{
			{Dir: ".", Name: `file"with"quotes.txt`, Class: types.ClassMissing},
		},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	// Should be valid JSON even with special characters
	var parsed map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
}

func TestJSONFormatter_Format_Indented(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, &types.Report{Op: "create", Root: "/data"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "{\n")
}

func TestJSONFormatter_Registration(t *testing.T) {
	formatter, err := Get("json")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, formatter)
}
