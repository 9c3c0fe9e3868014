// Package walker enumerates regular files beneath a root, grouped by
// directory, for manifest reconciliation. Traversal uses fastwalk for
// parallel descent, never follows symlinked directories, and gates hidden
// (dot-prefixed) entries behind an option.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/attest/pkg/attest/logging"
	"github.com/jamesainslie/attest/pkg/attest/sumfile"
)

var logger = logging.Get("walker")

// Options configures a walk.
type Options struct {
	// Root is the starting directory. It must exist and be a directory.
	Root string

	// IncludeHidden includes dot-prefixed files and directories. The root
	// itself is always walked, hidden or not.
	IncludeHidden bool

	// ExcludeFiles holds glob patterns matched against file names.
	// Sumfiles are excluded regardless of this list.
	ExcludeFiles []string

	// ExcludeDirs holds glob patterns matched against directory names.
	ExcludeDirs []string
}

// Group is the set of listed regular files in one directory.
type Group struct {
	// Dir is the absolute directory path.
	Dir string

	// Rel is Dir relative to the walk root; "." for the root itself.
	Rel string

	// Files holds the file names within Dir, sorted.
	Files []string
}

// WalkError pairs a path with the traversal error it produced.
type WalkError struct {
	Path string
	Err  error
}

// Result is the outcome of one walk.
type Result struct {
	// Groups holds one entry per visited directory, sorted by Rel.
	// Directories without regular files get an empty Files slice so the
	// caller can still detect stale sumfiles there.
	Groups []Group

	// Errors holds per-path traversal errors; they do not abort the walk.
	Errors []WalkError

	// DirsVisited and FilesListed are traversal counters.
	DirsVisited int64
	FilesListed int64
}

// Walker lists files beneath a root.
type Walker struct {
	opts Options

	dirsVisited atomic.Int64
	filesListed atomic.Int64

	groups   map[string][]string
	groupsMu sync.Mutex

	errors   []WalkError
	errorsMu sync.Mutex

	root string
}

// New creates a Walker with the given options.
func New(opts Options) *Walker {
	return &Walker{
		opts:   opts,
		groups: make(map[string][]string),
	}
}

// Walk traverses the root and returns the grouped listing.
// It blocks until traversal completes or the context is cancelled.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	root, err := w.validateRoot()
	if err != nil {
		return nil, err
	}
	w.root = root

	conf := fastwalk.Config{
		Follow: false, // Don't follow symlinks.
	}

	walkErr := fastwalk.Walk(&conf, root, w.callback(ctx))
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}
	if errors.Is(walkErr, context.Canceled) {
		return nil, walkErr
	}

	result := w.collect()
	logger.Debug("walk complete",
		"root", root,
		"dirs", result.DirsVisited,
		"files", result.FilesListed,
		"errors", len(result.Errors))
	return result, nil
}

// validateRoot resolves the root path to absolute and verifies it exists.
func (w *Walker) validateRoot() (string, error) {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", root, os.ErrInvalid)
	}

	return root, nil
}

// callback returns the fastwalk callback for this walk.
func (w *Walker) callback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Record errors and continue; one unreadable entry must not
		// abort the traversal.
		if err != nil {
			w.addError(path, err)
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path != w.root {
				if w.isHidden(name) || matchAny(w.opts.ExcludeDirs, name) {
					return filepath.SkipDir
				}
			}
			w.handleDirectory(path)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if name == sumfile.Name || matchAny(w.opts.ExcludeFiles, name) {
			return nil
		}
		if w.isHidden(name) {
			return nil
		}

		w.addFile(path, name)
		return nil
	}
}

// handleDirectory registers a visited directory so it appears in the result
// even when it contains no listed files.
func (w *Walker) handleDirectory(path string) {
	w.dirsVisited.Add(1)

	w.groupsMu.Lock()
	if _, ok := w.groups[path]; !ok {
		w.groups[path] = nil
	}
	w.groupsMu.Unlock()
}

// addFile records a regular file under its parent directory.
func (w *Walker) addFile(path, name string) {
	w.filesListed.Add(1)

	dir := filepath.Dir(path)
	w.groupsMu.Lock()
	w.groups[dir] = append(w.groups[dir], name)
	w.groupsMu.Unlock()
}

// addError records a traversal error thread-safely.
func (w *Walker) addError(path string, err error) {
	w.errorsMu.Lock()
	w.errors = append(w.errors, WalkError{Path: path, Err: err})
	w.errorsMu.Unlock()
}

// collect assembles the sorted result after traversal finishes.
func (w *Walker) collect() *Result {
	groups := make([]Group, 0, len(w.groups))
	for dir, files := range w.groups {
		sort.Strings(files)
		groups = append(groups, Group{
			Dir:   dir,
			Rel:   w.rel(dir),
			Files: files,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Rel < groups[j].Rel
	})

	return &Result{
		Groups:      groups,
		Errors:      w.errors,
		DirsVisited: w.dirsVisited.Load(),
		FilesListed: w.filesListed.Load(),
	}
}

// rel converts an absolute directory path to one relative to the root.
func (w *Walker) rel(dir string) string {
	if dir == w.root {
		return "."
	}
	return strings.TrimPrefix(dir, w.root+string(filepath.Separator))
}

// isHidden reports whether a name is gated out as a hidden entry.
func (w *Walker) isHidden(name string) bool {
	return !w.opts.IncludeHidden && strings.HasPrefix(name, ".")
}

// matchAny reports whether a name matches any glob pattern.
func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if matched, err := filepath.Match(p, name); err == nil && matched {
			return true
		}
	}
	return false
}
