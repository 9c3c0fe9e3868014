package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/attest/pkg/attest/types"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Op            string      `json:"op"`
	Root          string      `json:"root"`
	Passed        bool        `json:"passed"`
	Entries       []jsonEntry `json:"entries"`
	UntrackedDirs []string    `json:"untracked_dirs,omitempty"`
	Summary       jsonSummary `json:"summary"`
}

// jsonEntry represents one classified file in JSON output.
type jsonEntry struct {
	Path   string `json:"path"`
	Class  string `json:"class"`
	Detail string `json:"detail,omitempty"`
}

// jsonSummary represents run totals in JSON output.
type jsonSummary struct {
	DirsVisited      int64  `json:"dirs_visited"`
	FilesListed      int64  `json:"files_listed"`
	FilesHashed      int64  `json:"files_hashed"`
	BytesHashed      int64  `json:"bytes_hashed"`
	ManifestsWritten int64  `json:"manifests_written"`
	Unchanged        int64  `json:"unchanged"`
	Modified         int    `json:"modified"`
	Added            int    `json:"added"`
	Missing          int    `json:"missing"`
	Errors           int    `json:"errors"`
	Duration         string `json:"duration"`
}

// JSONFormatter formats a report as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	entries := make([]jsonEntry, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = jsonEntry{
			Path:   e.Path(),
			Class:  string(e.Class),
			Detail: e.Detail,
		}
	}

	doc := jsonOutput{
		Op:            r.Op,
		Root:          r.Root,
		Passed:        !r.Failed(),
		Entries:       entries,
		UntrackedDirs: r.UntrackedDirs,
		Summary: jsonSummary{
			DirsVisited:      r.Stats.DirsVisited,
			FilesListed:      r.Stats.FilesListed,
			FilesHashed:      r.Stats.FilesHashed,
			BytesHashed:      r.Stats.BytesHashed,
			ManifestsWritten: r.Stats.ManifestsWritten,
			Unchanged:        r.Unchanged,
			Modified:         r.Count(types.ClassModified),
			Added:            r.Count(types.ClassAdded),
			Missing:          r.Count(types.ClassMissing),
			Errors:           r.Count(types.ClassError),
			Duration:         r.Stats.Elapsed.String(),
		},
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
