// Package types provides core data types for the attest checksum tool.
// It includes the diff classifications produced by manifest reconciliation,
// the aggregated run report, and shared option structures.
package types

import (
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// Classification is the result of comparing one file against its manifest
// record. The four diff classes are mutually exclusive; ClassError marks a
// path that could not be read and therefore could not be classified.
type Classification string

const (
	// ClassUnchanged means the file's digest matches its stored record.
	ClassUnchanged Classification = "unchanged"

	// ClassModified means the file's digest differs from its stored record.
	ClassModified Classification = "modified"

	// ClassAdded means the file exists on disk but has no stored record.
	ClassAdded Classification = "added"

	// ClassMissing means a stored record exists but the file is gone.
	ClassMissing Classification = "missing"

	// ClassError means the file could not be read or hashed.
	ClassError Classification = "error"
)

// Entry is one reportable reconciliation outcome for a single file.
type Entry struct {
	// Dir is the directory containing the file, relative to the run root.
	// "." denotes the root itself.
	Dir string `json:"dir"`

	// Name is the file name within Dir.
	Name string `json:"name"`

	// Class is the diff classification for this file.
	Class Classification `json:"class"`

	// Detail carries extra context, e.g. the I/O error for ClassError.
	Detail string `json:"detail,omitempty"`
}

// Path returns the entry's path relative to the run root.
func (e Entry) Path() string {
	if e.Dir == "" || e.Dir == "." {
		return e.Name
	}
	return filepath.Join(e.Dir, e.Name)
}

// Stats contains counters accumulated over one run.
type Stats struct {
	// DirsVisited is the number of directories traversed.
	DirsVisited int64 `json:"dirs_visited"`

	// FilesListed is the number of regular files seen by the lister.
	FilesListed int64 `json:"files_listed"`

	// FilesHashed is the number of files whose content was digested.
	FilesHashed int64 `json:"files_hashed"`

	// BytesHashed is the total content bytes digested.
	BytesHashed int64 `json:"bytes_hashed"`

	// ManifestsWritten is the number of sumfiles created or rewritten.
	ManifestsWritten int64 `json:"manifests_written"`

	// Elapsed is the wall time for the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Report aggregates the outcome of one create, verify, or reset run.
// Unchanged files are counted but not listed so large clean trees stay quiet.
type Report struct {
	// Op is the operation that produced this report: create, verify, reset.
	Op string `json:"op"`

	// Root is the absolute path of the tree that was processed.
	Root string `json:"root"`

	// Entries lists every non-unchanged outcome, in traversal order.
	Entries []Entry `json:"entries"`

	// Unchanged counts files whose records matched.
	Unchanged int64 `json:"unchanged"`

	// UntrackedDirs lists directories that contain files but no sumfile.
	// Only verify populates this.
	UntrackedDirs []string `json:"untracked_dirs,omitempty"`

	// Stats contains run counters.
	Stats Stats `json:"stats"`
}

// Count returns the number of entries with the given classification.
func (r *Report) Count(c Classification) int {
	n := 0
	for _, e := range r.Entries {
		if e.Class == c {
			n++
		}
	}
	return n
}

// Failed reports whether the run found integrity failures. Modified and
// missing files fail, as do tracked files that could not be read. Added
// files are warnings under the additive create policy and do not fail.
func (r *Report) Failed() bool {
	for _, e := range r.Entries {
		switch e.Class {
		case ClassModified, ClassMissing, ClassError:
			return true
		}
	}
	return false
}

// Options configures a reconciliation run. The zero value is not usable;
// Root must be an existing directory.
type Options struct {
	// Root is the starting directory.
	Root string

	// IncludeHidden includes dot-prefixed files and directories.
	IncludeHidden bool

	// ExcludeFiles holds glob patterns matched against file names.
	ExcludeFiles []string

	// ExcludeDirs holds glob patterns matched against directory names.
	ExcludeDirs []string

	// Workers bounds the hashing worker pool. Zero or negative selects
	// runtime.GOMAXPROCS(0).
	Workers int
}

// FormatSize returns a human-readable byte count using binary (IEC) units.
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
