// Package reconcile implements manifest reconciliation: comparing a
// directory tree's current files against stored sumfile records and applying
// the create, verify, or reset policy to the differences.
//
// All three operations share one diff step. Per directory, every file on
// disk is classified against the manifest as unchanged, modified, or added,
// and every record without a file as missing. Hashing is lazy: a file is
// digested only when the operation actually needs its digest for comparison
// or persistence.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/attest/pkg/attest/hasher"
	"github.com/jamesainslie/attest/pkg/attest/logging"
	"github.com/jamesainslie/attest/pkg/attest/sumfile"
	"github.com/jamesainslie/attest/pkg/attest/types"
	"github.com/jamesainslie/attest/pkg/attest/walker"
)

// Operation names as they appear in reports.
const (
	OpCreate = "create"
	OpVerify = "verify"
	OpReset  = "reset"
)

// ErrNoManifests is returned by Verify when no sumfile exists anywhere
// under the root.
var ErrNoManifests = errors.New("no sumfiles found")

var logger = logging.Get("reconcile")

// HashFunc computes the hex digest of the file at path and reports the
// number of content bytes read.
type HashFunc func(path string) (digest string, n int64, err error)

// DiffResult classifies one directory's files against its manifest.
// The four classification slices are sorted and mutually exclusive; a file
// that could not be read appears only in Errors.
type DiffResult struct {
	Unchanged []string
	Modified  []string
	Added     []string
	Missing   []string

	// Errors maps file names to the read error that prevented hashing.
	Errors map[string]error

	// Digests holds the current digest of every file hashed during the
	// diff, keyed by name.
	Digests map[string]string

	// BytesHashed is the total content bytes digested.
	BytesHashed int64
}

// Diff classifies files in dir against the prior manifest. Files without a
// record are Added without hashing; records without a file are Missing.
// Only files that have both a record and a presence on disk are hashed, so
// hashing work is bounded to exactly the comparisons that need it.
func Diff(ctx context.Context, dir string, files []string, prior sumfile.Manifest, hash HashFunc, workers int) DiffResult {
	current := make(map[string]bool, len(files))
	for _, name := range files {
		current[name] = true
	}

	var toHash []string
	result := DiffResult{
		Errors:  make(map[string]error),
		Digests: make(map[string]string),
	}

	for _, name := range files {
		if _, tracked := prior[name]; tracked {
			toHash = append(toHash, name)
		} else {
			result.Added = append(result.Added, name)
		}
	}
	for name := range prior {
		if !current[name] {
			result.Missing = append(result.Missing, name)
		}
	}

	digests, errs, bytes := hashParallel(ctx, dir, toHash, hash, workers)
	result.BytesHashed = bytes
	for name, err := range errs {
		result.Errors[name] = err
	}
	for name, digest := range digests {
		result.Digests[name] = digest
		if digest == prior[name] {
			result.Unchanged = append(result.Unchanged, name)
		} else {
			result.Modified = append(result.Modified, name)
		}
	}

	sort.Strings(result.Unchanged)
	sort.Strings(result.Modified)
	sort.Strings(result.Added)
	sort.Strings(result.Missing)
	return result
}

// hashParallel digests the named files in dir with a bounded worker pool.
// Classification happens only after every hash completes.
func hashParallel(ctx context.Context, dir string, names []string, hash HashFunc, workers int) (map[string]string, map[string]error, int64) {
	digests := make(map[string]string, len(names))
	errs := make(map[string]error)
	var bytes int64

	if len(names) == 0 {
		return digests, errs, 0
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(names) {
		workers = len(names)
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				digest, n, err := hash(filepath.Join(dir, name))
				mu.Lock()
				if err != nil {
					errs[name] = err
				} else {
					digests[name] = digest
					bytes += n
				}
				mu.Unlock()
			}
		}()
	}

	for _, name := range names {
		select {
		case <-ctx.Done():
			// Stop feeding; in-flight hashes finish below.
			close(jobs)
			wg.Wait()
			return digests, errs, bytes
		case jobs <- name:
		}
	}
	close(jobs)
	wg.Wait()

	return digests, errs, bytes
}

// Reconciler runs create, verify, and reset over a directory tree.
type Reconciler struct {
	opts  types.Options
	store *sumfile.Store
	hash  HashFunc
}

// New creates a Reconciler. The default hash function streams files through
// SHA-256; tests may replace it with WithHashFunc.
func New(opts types.Options) *Reconciler {
	return &Reconciler{
		opts:  opts,
		store: sumfile.NewStore(),
		hash:  hasher.File,
	}
}

// WithHashFunc overrides the digest function and returns the receiver.
func (r *Reconciler) WithHashFunc(hash HashFunc) *Reconciler {
	r.hash = hash
	return r
}

// Create records digests for untracked files. The policy is additive:
// existing records are kept as-is without re-hashing, only files lacking a
// record are digested, and records for files no longer on disk are pruned.
// A directory whose manifest would be empty gets none.
func (r *Reconciler) Create(ctx context.Context) (*types.Report, error) {
	return r.run(ctx, OpCreate)
}

// Verify compares every tracked file against its record. It never writes.
// It fails with ErrNoManifests when no sumfile exists anywhere under the
// root; whether the report itself passes is the caller's to judge via
// Report.Failed.
func (r *Reconciler) Verify(ctx context.Context) (*types.Report, error) {
	return r.run(ctx, OpVerify)
}

// Reset recomputes digests for all current files and rewrites each
// manifest to mirror the disk exactly. The diff against the prior manifest
// is reported for audit, then discarded.
func (r *Reconciler) Reset(ctx context.Context) (*types.Report, error) {
	return r.run(ctx, OpReset)
}

// run walks the tree and applies the operation policy per directory.
func (r *Reconciler) run(ctx context.Context, op string) (*types.Report, error) {
	start := time.Now()

	w := walker.New(walker.Options{
		Root:          r.opts.Root,
		IncludeHidden: r.opts.IncludeHidden,
		ExcludeFiles:  r.opts.ExcludeFiles,
		ExcludeDirs:   r.opts.ExcludeDirs,
	})
	listing, err := w.Walk(ctx)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(r.opts.Root)
	if err != nil {
		return nil, err
	}

	report := &types.Report{
		Op:   op,
		Root: root,
	}
	report.Stats.DirsVisited = listing.DirsVisited
	report.Stats.FilesListed = listing.FilesListed

	for _, we := range listing.Errors {
		report.Entries = append(report.Entries, types.Entry{
			Dir:    relDir(root, filepath.Dir(we.Path)),
			Name:   filepath.Base(we.Path),
			Class:  types.ClassError,
			Detail: we.Err.Error(),
		})
	}

	manifests := 0
	loadErrors := 0
	for _, group := range listing.Groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prior, err := r.store.Load(group.Dir)
		found := true
		if err != nil {
			if !errors.Is(err, sumfile.ErrNotFound) {
				loadErrors++
				report.Entries = append(report.Entries, types.Entry{
					Dir:    group.Rel,
					Name:   sumfile.Name,
					Class:  types.ClassError,
					Detail: err.Error(),
				})
				continue
			}
			found = false
			prior = make(sumfile.Manifest)
			err = nil
		}
		if found {
			manifests++
		}

		switch op {
		case OpCreate:
			err = r.applyCreate(ctx, group, prior, report)
		case OpVerify:
			r.applyVerify(ctx, group, prior, found, report)
		case OpReset:
			err = r.applyReset(ctx, group, prior, found, report)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			report.Entries = append(report.Entries, types.Entry{
				Dir:    group.Rel,
				Name:   sumfile.Name,
				Class:  types.ClassError,
				Detail: err.Error(),
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// An unreadable sumfile is still evidence of tracking; its read error
	// is already in the report and must not be masked by ErrNoManifests.
	if op == OpVerify && manifests == 0 && loadErrors == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoManifests, root)
	}

	report.Stats.Elapsed = time.Since(start)
	logger.Info("run complete",
		"op", op,
		"root", root,
		"dirs", report.Stats.DirsVisited,
		"files", report.Stats.FilesListed,
		"hashed", report.Stats.FilesHashed,
		"entries", len(report.Entries))
	return report, nil
}

// applyCreate implements the additive create policy for one directory.
func (r *Reconciler) applyCreate(ctx context.Context, group walker.Group, prior sumfile.Manifest, report *types.Report) error {
	next := make(sumfile.Manifest, len(group.Files))
	var untracked []string

	for _, name := range group.Files {
		if digest, tracked := prior[name]; tracked {
			next[name] = digest
			report.Unchanged++
		} else {
			untracked = append(untracked, name)
		}
	}

	digests, errs, bytes := hashParallel(ctx, group.Dir, untracked, r.hash, r.opts.Workers)
	report.Stats.BytesHashed += bytes
	report.Stats.FilesHashed += int64(len(digests))

	for _, name := range untracked {
		if err, failed := errs[name]; failed {
			report.Entries = append(report.Entries, types.Entry{
				Dir:    group.Rel,
				Name:   name,
				Class:  types.ClassError,
				Detail: err.Error(),
			})
			continue
		}
		next[name] = digests[name]
		report.Entries = append(report.Entries, types.Entry{
			Dir:   group.Rel,
			Name:  name,
			Class: types.ClassAdded,
		})
	}

	pruned := false
	for _, name := range prior.Names() {
		if _, onDisk := next[name]; !onDisk {
			pruned = true
			report.Entries = append(report.Entries, types.Entry{
				Dir:    group.Rel,
				Name:   name,
				Class:  types.ClassMissing,
				Detail: "record dropped",
			})
		}
	}

	// Never persist a manifest assembled from an interrupted hash pass.
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.persist(group, prior, next, len(digests) > 0 || pruned, report)
}

// applyVerify implements the read-only verify policy for one directory.
func (r *Reconciler) applyVerify(ctx context.Context, group walker.Group, prior sumfile.Manifest, found bool, report *types.Report) {
	if !found {
		if len(group.Files) > 0 {
			report.UntrackedDirs = append(report.UntrackedDirs, group.Rel)
		}
		return
	}

	diff := Diff(ctx, group.Dir, group.Files, prior, r.hash, r.opts.Workers)
	report.Stats.BytesHashed += diff.BytesHashed
	report.Stats.FilesHashed += int64(len(diff.Digests))
	report.Unchanged += int64(len(diff.Unchanged))

	appendEntries(report, group.Rel, diff.Modified, types.ClassModified, "digest mismatch")
	appendEntries(report, group.Rel, diff.Missing, types.ClassMissing, "file not on disk")
	appendEntries(report, group.Rel, diff.Added, types.ClassAdded, "")
	for _, name := range sortedKeys(diff.Errors) {
		report.Entries = append(report.Entries, types.Entry{
			Dir:    group.Rel,
			Name:   name,
			Class:  types.ClassError,
			Detail: diff.Errors[name].Error(),
		})
	}
}

// applyReset implements the overwrite policy for one directory: report the
// diff, then rewrite the manifest from freshly computed digests.
func (r *Reconciler) applyReset(ctx context.Context, group walker.Group, prior sumfile.Manifest, found bool, report *types.Report) error {
	diff := Diff(ctx, group.Dir, group.Files, prior, r.hash, r.opts.Workers)
	report.Stats.BytesHashed += diff.BytesHashed
	report.Stats.FilesHashed += int64(len(diff.Digests))
	report.Unchanged += int64(len(diff.Unchanged))

	appendEntries(report, group.Rel, diff.Modified, types.ClassModified, "record updated")
	appendEntries(report, group.Rel, diff.Missing, types.ClassMissing, "record dropped")

	// Added files need digests too; the lazy diff skipped them.
	addedDigests, addedErrs, bytes := hashParallel(ctx, group.Dir, diff.Added, r.hash, r.opts.Workers)
	report.Stats.BytesHashed += bytes
	report.Stats.FilesHashed += int64(len(addedDigests))

	next := make(sumfile.Manifest, len(group.Files))
	for name, digest := range diff.Digests {
		next[name] = digest
	}
	for name, digest := range addedDigests {
		next[name] = digest
	}

	for _, name := range diff.Added {
		if err, failed := addedErrs[name]; failed {
			report.Entries = append(report.Entries, types.Entry{
				Dir:    group.Rel,
				Name:   name,
				Class:  types.ClassError,
				Detail: err.Error(),
			})
			continue
		}
		report.Entries = append(report.Entries, types.Entry{
			Dir:   group.Rel,
			Name:  name,
			Class: types.ClassAdded,
		})
	}
	for _, name := range sortedKeys(diff.Errors) {
		report.Entries = append(report.Entries, types.Entry{
			Dir:    group.Rel,
			Name:   name,
			Class:  types.ClassError,
			Detail: diff.Errors[name].Error(),
		})
	}

	// Never persist a manifest assembled from an interrupted hash pass.
	if err := ctx.Err(); err != nil {
		return err
	}

	changed := found || len(next) > 0
	return r.persist(group, prior, next, changed, report)
}

// persist writes or removes the directory's manifest as the policy decided.
// An empty manifest is never written; a stale sumfile over an empty file
// set is removed.
func (r *Reconciler) persist(group walker.Group, prior, next sumfile.Manifest, changed bool, report *types.Report) error {
	if !changed {
		return nil
	}

	if len(next) == 0 {
		if len(prior) > 0 {
			if err := r.store.Remove(group.Dir); err != nil {
				return err
			}
			report.Stats.ManifestsWritten++
		}
		return nil
	}

	if err := r.store.Save(group.Dir, next); err != nil {
		return err
	}
	report.Stats.ManifestsWritten++
	return nil
}

// appendEntries adds one report entry per name with the given class.
func appendEntries(report *types.Report, rel string, names []string, class types.Classification, detail string) {
	for _, name := range names {
		report.Entries = append(report.Entries, types.Entry{
			Dir:    rel,
			Name:   name,
			Class:  class,
			Detail: detail,
		})
	}
}

// sortedKeys returns map keys in sorted order for deterministic reports.
func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// relDir converts an absolute directory to a root-relative one.
func relDir(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return dir
	}
	return rel
}
