package pathjail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJail(t *testing.T) *Jail {
	t.Helper()
	root := t.TempDir()
	j, err := New(root, nil)
	require.NoError(t, err)
	return j
}

func TestResolve_RelativePathInsideRoot(t *testing.T) {
	j := newTestJail(t)

	abs, rel, err := j.Resolve("sub/file.txt")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(j.Root(), "sub", "file.txt"), abs)
	assert.Equal(t, "sub/file.txt", rel)
}

func TestResolve_RootItself(t *testing.T) {
	j := newTestJail(t)

	abs, rel, err := j.Resolve(".")

	require.NoError(t, err)
	assert.Equal(t, j.Root(), abs)
	assert.Equal(t, "", rel)
}

func TestResolve_DotDotEscape(t *testing.T) {
	j := newTestJail(t)

	_, _, err := j.Resolve("../outside.txt")

	assert.ErrorIs(t, err, ErrJailViolation)
}

func TestResolve_NestedDotDotEscape(t *testing.T) {
	j := newTestJail(t)

	_, _, err := j.Resolve("a/b/../../../outside.txt")

	assert.ErrorIs(t, err, ErrJailViolation)
}

func TestResolve_DotDotThatStaysInside(t *testing.T) {
	j := newTestJail(t)
	require.NoError(t, os.MkdirAll(filepath.Join(j.Root(), "a", "b"), 0o755))

	abs, rel, err := j.Resolve("a/b/../c.txt")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(j.Root(), "a", "c.txt"), abs)
	assert.Equal(t, "a/c.txt", rel)
}

func TestResolve_AbsolutePathOutsideRoot(t *testing.T) {
	j := newTestJail(t)

	_, _, err := j.Resolve("/etc/passwd")

	assert.ErrorIs(t, err, ErrJailViolation)
}

func TestResolve_AbsolutePathInsideRoot(t *testing.T) {
	j := newTestJail(t)

	abs, rel, err := j.Resolve(filepath.Join(j.Root(), "ok.txt"))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(j.Root(), "ok.txt"), abs)
	assert.Equal(t, "ok.txt", rel)
}

func TestResolve_SymlinkEscapingRoot(t *testing.T) {
	j := newTestJail(t)
	outside := t.TempDir()
	link := filepath.Join(j.Root(), "sneaky")
	require.NoError(t, os.Symlink(outside, link))

	_, _, err := j.Resolve("sneaky/file.txt")

	assert.ErrorIs(t, err, ErrJailViolation)
}

func TestResolve_SymlinkInsideRoot(t *testing.T) {
	j := newTestJail(t)
	require.NoError(t, os.MkdirAll(filepath.Join(j.Root(), "real"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(j.Root(), "real"), filepath.Join(j.Root(), "alias")))

	abs, rel, err := j.Resolve("alias/file.txt")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(j.Root(), "real", "file.txt"), abs)
	assert.Equal(t, "real/file.txt", rel)
}

func TestResolve_SymlinkCycle(t *testing.T) {
	j := newTestJail(t)
	a := filepath.Join(j.Root(), "a")
	b := filepath.Join(j.Root(), "b")
	require.NoError(t, os.Symlink(b, a))
	require.NoError(t, os.Symlink(a, b))

	_, _, err := j.Resolve("a/file.txt")

	assert.ErrorIs(t, err, ErrJailViolation)
}

func TestResolve_DotDotPrefixedNameAllowed(t *testing.T) {
	// "..config" starts with two dots but is an ordinary name inside the root.
	j := newTestJail(t)
	require.NoError(t, os.WriteFile(filepath.Join(j.Root(), "..config"), []byte("x"), 0o644))

	abs, rel, err := j.Resolve("..config")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(j.Root(), "..config"), abs)
	assert.Equal(t, "..config", rel)
}

func TestResolve_DotDotPrefixedDirAllowed(t *testing.T) {
	j := newTestJail(t)

	abs, rel, err := j.Resolve("..data/file.txt")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(j.Root(), "..data", "file.txt"), abs)
	assert.Equal(t, "..data/file.txt", rel)
}

func TestResolve_MissingComponentsAllowed(t *testing.T) {
	// A write may create directories that do not exist yet.
	j := newTestJail(t)

	abs, rel, err := j.Resolve("new/dir/file.txt")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(j.Root(), "new", "dir", "file.txt"), abs)
	assert.Equal(t, "new/dir/file.txt", rel)
}

func TestCanonicalise_MissingRoot(t *testing.T) {
	_, err := Canonicalise(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestCanonicalise_FileNotDirectory(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	_, err := Canonicalise(f)
	assert.Error(t, err)
}
