package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/attest/pkg/attest/types"
)

// PrettyFormatter formats a report with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatEntries(r))

	if len(r.UntrackedDirs) > 0 {
		w.WriteString(f.formatUntracked(r.UntrackedDirs))
	}

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *types.Report) string {
	var lines []string

	opLabel := LabelStyle.Render("Operation:")
	opValue := ValueStyle.Render(r.Op)
	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(r.Root)
	lines = append(lines, fmt.Sprintf("%s %s  %s %s", opLabel, opValue, rootLabel, rootValue))

	checkedLabel := LabelStyle.Render("Checked:")
	checkedValue := ValueStyle.Render(fmt.Sprintf("%d files in %d dirs, %s hashed in %s",
		r.Stats.FilesListed, r.Stats.DirsVisited,
		types.FormatSize(r.Stats.BytesHashed),
		r.Stats.Elapsed.Round(time.Millisecond)))
	lines = append(lines, fmt.Sprintf("%s %s", checkedLabel, checkedValue))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatEntries renders one line per classified file.
func (f *PrettyFormatter) formatEntries(r *types.Report) string {
	if len(r.Entries) == 0 {
		return SuccessStyle.Render("  All tracked files match their records") + "\n"
	}

	var sb strings.Builder
	for _, e := range r.Entries {
		marker := classStyle(e.Class).Render(fmt.Sprintf("%-9s", e.Class))
		sb.WriteString("  ")
		sb.WriteString(marker)
		sb.WriteString(" ")
		sb.WriteString(PathStyle.Render(e.Path()))
		if e.Detail != "" {
			sb.WriteString(" ")
			sb.WriteString(MutedStyle.Render("(" + e.Detail + ")"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatUntracked renders directories that have files but no sumfile.
func (f *PrettyFormatter) formatUntracked(dirs []string) string {
	var sb strings.Builder
	for _, dir := range dirs {
		sb.WriteString("  ")
		sb.WriteString(WarningStyle.Render("untracked"))
		sb.WriteString(" ")
		sb.WriteString(PathStyle.Render(dir + "/"))
		sb.WriteString(" ")
		sb.WriteString(MutedStyle.Render("(no sumfile)"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatFooter builds the summary footer box.
func (f *PrettyFormatter) formatFooter(r *types.Report) string {
	parts := []string{
		LabelStyle.Render("unchanged:") + " " + ValueStyle.Render(fmt.Sprintf("%d", r.Unchanged)),
		LabelStyle.Render("modified:") + " " + countStyle(r.Count(types.ClassModified), ErrorStyle),
		LabelStyle.Render("added:") + " " + countStyle(r.Count(types.ClassAdded), WarningStyle),
		LabelStyle.Render("missing:") + " " + countStyle(r.Count(types.ClassMissing), ErrorStyle),
		LabelStyle.Render("errors:") + " " + countStyle(r.Count(types.ClassError), ErrorStyle),
	}

	status := SuccessStyle.Render("PASS")
	if r.Failed() {
		status = ErrorStyle.Bold(true).Render("FAIL")
	}

	content := strings.Join(parts, "  ") + "  " + status
	return FooterBox.Render(content)
}

// classStyle maps a classification to its display style.
func classStyle(c types.Classification) lipgloss.Style {
	switch c {
	case types.ClassModified, types.ClassMissing, types.ClassError:
		return ErrorStyle
	case types.ClassAdded:
		return WarningStyle
	default:
		return MutedStyle
	}
}

// countStyle highlights a count only when it is non-zero.
func countStyle(n int, style lipgloss.Style) string {
	if n == 0 {
		return MutedStyle.Render("0")
	}
	return style.Render(fmt.Sprintf("%d", n))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
