// Package sumfile reads and writes per-directory checksum manifests.
//
// A sumfile is a plain-text file named ".checksums.sha256" stored inside the
// directory it describes. Each line holds one record in shasum-compatible
// form:
//
//	<hex sha256 digest>  <file name>
//
// with a two-space delimiter. Blank lines and lines starting with '#' or ';'
// are comments and survive neither load nor save; they are tolerated so a
// hand-annotated sumfile still parses.
package sumfile

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jamesainslie/attest/pkg/attest/hasher"
	"github.com/jamesainslie/attest/pkg/attest/logging"
)

// Name is the sumfile name within each tracked directory.
const Name = ".checksums.sha256"

// delimiter separates digest and file name on each record line.
const delimiter = "  "

// ErrNotFound is returned by Load when a directory has no sumfile.
var ErrNotFound = errors.New("sumfile not found")

var logger = logging.Get("sumfile")

// Manifest maps file names to hex-encoded digests for one directory.
type Manifest map[string]string

// Names returns the record names in sorted order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the sumfile path for a directory.
func Path(dir string) string {
	return filepath.Join(dir, Name)
}

// Store loads and saves sumfiles. Writes are serialized through a mutex so
// no two operations write a manifest concurrently within one process.
type Store struct {
	mu sync.Mutex
}

// NewStore creates a new sumfile store.
func NewStore() *Store {
	return &Store{}
}

// Load reads the sumfile for a directory. It returns ErrNotFound when the
// directory has no sumfile. Records are kept even when the named file no
// longer exists on disk; classifying those is the reconciler's job.
func (s *Store) Load(dir string) (Manifest, error) {
	f, err := os.Open(Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("opening sumfile in %s: %w", dir, err)
	}
	defer f.Close()

	m := make(Manifest)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		digest, name, ok := strings.Cut(line, delimiter)
		if !ok || name == "" || !hasher.Valid(digest) {
			logger.Warn("skipping malformed sumfile line",
				"dir", dir, "line", lineNo)
			continue
		}
		m[name] = digest
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sumfile in %s: %w", dir, err)
	}

	return m, nil
}

// Save writes the manifest for a directory. The write is atomic: content
// goes to a temp file in the same directory which is then renamed over the
// sumfile, so an interrupted run never leaves a half-written manifest.
// Records are written sorted by name, making saves byte-stable for equal
// manifests.
func (s *Store) Save(dir string, m Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, name := range m.Names() {
		b.WriteString(m[name])
		b.WriteString(delimiter)
		b.WriteString(name)
		b.WriteByte('\n')
	}

	target := Path(dir)
	tmpPath := target + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing temp sumfile: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		// Cleanup temp file on rename failure
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing sumfile: %w", err)
	}

	logger.Debug("sumfile written", "dir", dir, "records", len(m))
	return nil
}

// Remove deletes the sumfile for a directory. A missing sumfile is not an
// error.
func (s *Store) Remove(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(Path(dir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing sumfile in %s: %w", dir, err)
	}
	return nil
}
