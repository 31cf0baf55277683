// Package pathjail confines filesystem paths to a workspace root. Every
// file-touching tool and the sandbox whitelist checks go through Resolve
// before any filesystem operation proceeds.
package pathjail

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrJailViolation is returned when a candidate path resolves outside the
// workspace root, whether through `..` segments, absolute paths, or symlinks.
var ErrJailViolation = errors.New("path escapes workspace root")

// maxSymlinkHops bounds symlink chains during component-wise resolution.
const maxSymlinkHops = 64

// FileSystem is the minimal filesystem surface Resolve needs. Tests inject a
// fake; production code uses OSFileSystem.
type FileSystem interface {
	Lstat(path string) (os.FileInfo, error)
	Readlink(path string) (string, error)
	UserHomeDir() (string, error)
}

// OSFileSystem implements FileSystem against the real OS.
type OSFileSystem struct{}

func (OSFileSystem) Lstat(path string) (os.FileInfo, error) { return os.Lstat(path) }
func (OSFileSystem) Readlink(path string) (string, error)   { return os.Readlink(path) }
func (OSFileSystem) UserHomeDir() (string, error)           { return os.UserHomeDir() }

// Canonicalise makes a workspace root absolute and resolves its symlinks.
// The root must exist and be a directory.
func Canonicalise(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root symlinks: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace root is not a directory: %s", resolved)
	}
	return resolved, nil
}

// Jail confines paths to a canonicalised root.
type Jail struct {
	root string
	fs   FileSystem
}

// New canonicalises root and returns a Jail around it.
func New(root string, fs FileSystem) (*Jail, error) {
	if fs == nil {
		fs = OSFileSystem{}
	}
	canonical, err := Canonicalise(root)
	if err != nil {
		return nil, err
	}
	return &Jail{root: canonical, fs: fs}, nil
}

// Root returns the canonical workspace root.
func (j *Jail) Root() string { return j.root }

// Resolve normalises path and ensures it stays within the workspace root.
// Symlinks are resolved component by component so that a link inside the
// workspace pointing outside is caught. Missing trailing components are
// allowed (a write may create them). Returns the absolute path and the
// slash-separated path relative to the root.
func (j *Jail) Resolve(path string) (abs string, rel string, err error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := j.fs.UserHomeDir()
		if err != nil {
			return "", "", fmt.Errorf("expand tilde: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}

	var absInput string
	if filepath.IsAbs(path) {
		absInput = filepath.Clean(path)
	} else {
		absInput = filepath.Join(j.root, path)
	}

	relPath, err := filepath.Rel(j.root, absInput)
	if err != nil || escapes(relPath) {
		return "", "", fmt.Errorf("%s: %w", path, ErrJailViolation)
	}
	if relPath == "." {
		return j.root, "", nil
	}

	resolved, err := j.walk(relPath, 0)
	if err != nil {
		return "", "", err
	}

	finalRel, err := filepath.Rel(j.root, resolved)
	if err != nil || escapes(finalRel) {
		return "", "", fmt.Errorf("%s: %w", path, ErrJailViolation)
	}
	finalRel = filepath.ToSlash(finalRel)
	if finalRel == "." {
		finalRel = ""
	}
	return resolved, finalRel, nil
}

// escapes reports whether a root-relative path leaves the root. Only a bare
// ".." or a leading "../" counts; a name like "..config" is a legitimate
// entry inside the root.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// walk resolves relPath component by component, following symlinks and
// re-checking the jail boundary after each hop.
func (j *Jail) walk(relPath string, hops int) (string, error) {
	current := j.root
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if part == "" || part == "." {
			continue
		}
		candidate := filepath.Join(current, part)

		info, err := j.fs.Lstat(candidate)
		if err != nil {
			// Component does not exist yet. The remainder must still be
			// lexically inside the root.
			rest := filepath.Join(append([]string{candidate}, parts[i+1:]...)...)
			rest = filepath.Clean(rest)
			if rel, err := filepath.Rel(j.root, rest); err != nil || escapes(rel) {
				return "", fmt.Errorf("%s: %w", rest, ErrJailViolation)
			}
			return rest, nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			hops++
			if hops > maxSymlinkHops {
				return "", fmt.Errorf("%s: too many symlink hops: %w", candidate, ErrJailViolation)
			}
			target, err := j.fs.Readlink(candidate)
			if err != nil {
				return "", fmt.Errorf("readlink %s: %w", candidate, err)
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(current, target)
			}
			target = filepath.Clean(target)
			if rel, err := filepath.Rel(j.root, target); err != nil || escapes(rel) {
				return "", fmt.Errorf("%s -> %s: %w", candidate, target, ErrJailViolation)
			}
			// Re-walk from the root with the link target plus the remaining
			// components, so nested links are also checked.
			remaining, err := filepath.Rel(j.root, filepath.Join(append([]string{target}, parts[i+1:]...)...))
			if err != nil || escapes(remaining) {
				return "", fmt.Errorf("%s: %w", candidate, ErrJailViolation)
			}
			return j.walk(remaining, hops)
		}

		current = candidate
	}
	return current, nil
}
