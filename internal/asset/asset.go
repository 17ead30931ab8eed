// Package asset finds the video file produced by a download.
package asset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Container is a video container type inferred from a file extension.
type Container string

const (
	ContainerMP4 Container = "mp4"
	ContainerMKV Container = "mkv"
	ContainerAVI Container = "avi"
	ContainerMOV Container = "mov"
)

// Canonical is the container every asset is normalized into.
const Canonical = ContainerMP4

var videoContainers = map[Container]bool{
	ContainerMP4: true,
	ContainerMKV: true,
	ContainerAVI: true,
	ContainerMOV: true,
}

// Asset is a located video file.
type Asset struct {
	Path      string
	Container Container
}

// IsCanonical reports whether the asset already uses the canonical container.
// This is based on the extension only.
func (a Asset) IsCanonical() bool {
	return a.Container == Canonical
}

// ContainerOf infers the container from the extension of path, case-insensitively.
func ContainerOf(path string) (Container, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c := Container(ext)
	if !videoContainers[c] {
		return "", false
	}
	return c, true
}

// IsVideoFile returns true if path has a recognized video extension.
func IsVideoFile(path string) bool {
	_, ok := ContainerOf(path)
	return ok
}

// Locate returns the first video file under dir. Within each directory the
// entries are taken in listing order (not sorted) and the directory's own
// files are checked before any of its subdirectories are entered.
// Returns an error wrapping ErrNotFound when no video file exists.
func Locate(dir string) (Asset, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Asset{}, fmt.Errorf("resolve %s: %w", dir, err)
	}

	a, found, err := walk(abs)
	if err != nil {
		return Asset{}, fmt.Errorf("walk directory: %w", err)
	}
	if !found {
		return Asset{}, fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	return a, nil
}

func walk(dir string) (Asset, bool, error) {
	entries, err := readDirUnsorted(dir)
	if err != nil {
		return Asset{}, false, err
	}

	var subdirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		if c, ok := ContainerOf(e.Name()); ok {
			return Asset{Path: path, Container: c}, true, nil
		}
	}

	for _, sub := range subdirs {
		a, found, err := walk(sub)
		if err != nil || found {
			return a, found, err
		}
	}
	return Asset{}, false, nil
}

// readDirUnsorted lists dir in the order the filesystem returns entries.
// os.ReadDir would sort by name.
func readDirUnsorted(dir string) ([]os.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.ReadDir(-1)
}

// FindAll returns every video file under dir in walk order.
func FindAll(dir string) ([]string, error) {
	var videos []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsVideoFile(path) {
			return nil
		}
		videos = append(videos, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	return videos, nil
}

// Locator wraps Locate with logging.
type Locator struct {
	log *slog.Logger
}

// NewLocator creates a locator.
func NewLocator(log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	return &Locator{log: log}
}

// Locate finds the first video file under dir.
func (l *Locator) Locate(dir string) (Asset, error) {
	a, err := Locate(dir)
	if err != nil {
		l.log.Warn("no video asset", "dir", dir, "error", err)
		return Asset{}, err
	}
	l.log.Info("video asset located", "path", a.Path, "container", a.Container)
	return a, nil
}
