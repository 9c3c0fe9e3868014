package output

import (
	"bytes"

	"github.com/jamesainslie/attest/pkg/attest/types"
)

// PathsFormatter formats a report as one affected path per line.
// Only non-unchanged paths are output, without classification or detail,
// making the result suitable for piping to other tools.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	for _, e := range r.Entries {
		w.WriteString(e.Path())
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)
