// Package session models one acquisition request and its private working directory.
package session

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is a single acquisition request.
type Session struct {
	ID        string
	Locator   string // magnet URI or .torrent URL
	Dir       string // <workspace root>/<ID>
	CreatedAt time.Time
}

// Workspace is the base directory under which every session gets its own
// subdirectory. Session directories are never reused and never removed here.
type Workspace struct {
	root string
}

// NewWorkspace returns a workspace rooted at root (made absolute).
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// NewSession allocates a session with a fresh ID. The directory is not created
// until Ensure is called.
func (w *Workspace) NewSession(locator string) *Session {
	id := uuid.NewString()
	return &Session{
		ID:        id,
		Locator:   locator,
		Dir:       filepath.Join(w.root, id),
		CreatedAt: time.Now(),
	}
}

// Ensure creates the session directory if it does not exist yet.
func Ensure(s *Session) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return nil
}

// Files returns every regular file under the root whose lower-cased extension
// equals ext (e.g. ".mp4"), as slash-separated paths relative to the root.
// A missing root yields an empty list.
func (w *Workspace) Files(ext string) ([]string, error) {
	ext = strings.ToLower(ext)
	var out []string

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ext {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk workspace: %w", err)
	}
	return out, nil
}

// Size returns the total size in bytes of all regular files under the root.
func (w *Workspace) Size() (int64, error) {
	var total int64

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// Removed between listing and stat.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk workspace: %w", err)
	}
	return total, nil
}
