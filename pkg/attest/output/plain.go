package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jamesainslie/attest/pkg/attest/types"
)

// PlainFormatter formats a report as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	for _, e := range r.Entries {
		line := string(e.Class) + "\t" + e.Path()
		if e.Detail != "" {
			line += "\t" + e.Detail
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}
	for _, dir := range r.UntrackedDirs {
		if _, err := fmt.Fprintln(tw, "untracked\t"+dir); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s: %d dirs, %d files, %d unchanged, %d modified, %d added, %d missing, %d errors (%s hashed in %s)\n",
		r.Op, r.Root,
		r.Stats.DirsVisited, r.Stats.FilesListed,
		r.Unchanged,
		r.Count(types.ClassModified),
		r.Count(types.ClassAdded),
		r.Count(types.ClassMissing),
		r.Count(types.ClassError),
		types.FormatSize(r.Stats.BytesHashed),
		r.Stats.Elapsed.Round(time.Millisecond))

	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
