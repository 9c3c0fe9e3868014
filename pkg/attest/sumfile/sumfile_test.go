package sumfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	digestA = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	digestB = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func TestStore_Load(t *testing.T) {
	t.Parallel()

	t.Run("missing sumfile returns ErrNotFound", func(t *testing.T) {
		t.Parallel()
		s := NewStore()

		_, err := s.Load(t.TempDir())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("parses records", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		content := digestA + "  a.txt\n" + digestB + "  b.txt\n"
		require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0o644))

		m, err := NewStore().Load(dir)
		require.NoError(t, err)
		assert.Equal(t, Manifest{"a.txt": digestA, "b.txt": digestB}, m)
	})

	t.Run("ignores comments and blank lines", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		content := "# annotated by hand\n\n; semicolon comment\n" + digestA + "  a.txt\n"
		require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0o644))

		m, err := NewStore().Load(dir)
		require.NoError(t, err)
		assert.Equal(t, Manifest{"a.txt": digestA}, m)
	})

	t.Run("skips malformed lines", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		content := strings.Join([]string{
			"not-a-digest  a.txt",       // bad digest
			digestA + " single-space",   // wrong delimiter
			digestA + "  ",              // no name
			digestB + "  good.txt",      // valid
		}, "\n") + "\n"
		require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0o644))

		m, err := NewStore().Load(dir)
		require.NoError(t, err)
		assert.Equal(t, Manifest{"good.txt": digestB}, m)
	})

	t.Run("keeps records for absent files", func(t *testing.T) {
		t.Parallel()
		// Records must survive load even when the file is gone; Missing
		// classification depends on it.
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(Path(dir), []byte(digestA+"  gone.txt\n"), 0o644))

		m, err := NewStore().Load(dir)
		require.NoError(t, err)
		assert.Contains(t, m, "gone.txt")
	})
}

func TestStore_Save(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		s := NewStore()

		in := Manifest{"b.txt": digestB, "a.txt": digestA}
		require.NoError(t, s.Save(dir, in))

		out, err := s.Load(dir)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("records sorted by name", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		s := NewStore()

		require.NoError(t, s.Save(dir, Manifest{"z.txt": digestA, "a.txt": digestB}))

		data, err := os.ReadFile(Path(dir))
		require.NoError(t, err)
		want := digestB + "  a.txt\n" + digestA + "  z.txt\n"
		assert.Equal(t, want, string(data))
	})

	t.Run("save is byte-stable", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		s := NewStore()
		m := Manifest{"a.txt": digestA, "b.txt": digestB}

		require.NoError(t, s.Save(dir, m))
		first, err := os.ReadFile(Path(dir))
		require.NoError(t, err)

		require.NoError(t, s.Save(dir, m))
		second, err := os.ReadFile(Path(dir))
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("no temp file left behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, NewStore().Save(dir, Manifest{"a.txt": digestA}))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, Name, entries[0].Name())
	})
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore()
	require.NoError(t, s.Save(dir, Manifest{"a.txt": digestA}))

	require.NoError(t, s.Remove(dir))
	_, err := os.Stat(Path(dir))
	assert.True(t, os.IsNotExist(err))

	// Removing again is not an error.
	require.NoError(t, s.Remove(dir))
}

func TestManifest_Names(t *testing.T) {
	t.Parallel()

	m := Manifest{"c": digestA, "a": digestA, "b": digestB}
	assert.Equal(t, []string{"a", "b", "c"}, m.Names())
}

func TestPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("/data", Name), Path("/data"))
}
