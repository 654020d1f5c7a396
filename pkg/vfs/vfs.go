package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// validPath is the regex for sanitizing in-memory file names: slash
// separated segments of letters, digits, '_', '-' and '.'.
var validPath = regexp.MustCompile(`^[a-zA-Z0-9_.-]+(/[a-zA-Z0-9_.-]+)*$`)

var (
	// ErrFileNotFound matches fs.ErrNotExist under errors.Is.
	ErrFileNotFound    = fmt.Errorf("file not found: %w", fs.ErrNotExist)
	ErrInvalidFilename = errors.New("invalid filename")
)

type FileEntry struct {
	Data     []byte
	Modified time.Time
}

// Disk is an in-memory set of source files and binary images. It serves
// .include and .copy lookups in tests and when sources are embedded.
type Disk struct {
	mu    sync.RWMutex
	files map[string]*FileEntry
}

// NewDisk creates an empty Disk.
func NewDisk() *Disk {
	return &Disk{files: make(map[string]*FileEntry)}
}

// clean normalises a name so "./lib/x.asm" and "lib/x.asm" are the same
// file. Names that escape the root are rejected.
func clean(name string) (string, error) {
	name = path.Clean(filepath.ToSlash(name))
	if !validPath.MatchString(name) || name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return name, nil
}

// Write stores a copy of data under name, replacing any previous content.
func (d *Disk) Write(name string, data []byte) error {
	name, err := clean(name)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Deep copy data to prevent external mutations
	stored := make([]byte, len(data))
	copy(stored, data)
	d.files[name] = &FileEntry{Data: stored, Modified: time.Now()}
	return nil
}

// WriteString is Write for source text.
func (d *Disk) WriteString(name, text string) error {
	return d.Write(name, []byte(text))
}

// ReadFile returns the contents of name.
func (d *Disk) ReadFile(name string) ([]byte, error) {
	name, err := clean(name)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	out := make([]byte, len(entry.Data))
	copy(out, entry.Data)
	return out, nil
}

// Size returns the size of a file in bytes.
func (d *Disk) Size(name string) (int, error) {
	name, err := clean(name)
	if err != nil {
		return 0, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.files[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	return len(entry.Data), nil
}

// List returns a sorted list of all file names.
func (d *Disk) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.files))
	for k := range d.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HostDir reads files from the host file system. Relative names are taken
// from Root, or from the working directory when Root is empty.
type HostDir struct {
	Root string
}

func (h HostDir) ReadFile(name string) ([]byte, error) {
	if !filepath.IsAbs(name) && h.Root != "" {
		name = filepath.Join(h.Root, name)
	}
	return os.ReadFile(name)
}
