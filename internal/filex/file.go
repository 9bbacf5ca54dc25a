// Package filex holds filesystem helpers: working directories and temp-file
// spools used to buffer remote content before it is archived.
package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// EnsureSubdDir creates dirName under the current working directory (unless
// it is absolute) and returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// Spool is a temp file holding a fully received copy of a stream.
type Spool struct {
	f    *os.File
	size int64
}

// NewSpool copies r into a new temp file under dir ("" means os.TempDir).
// On error nothing is left on disk. The caller still owns r and must close it.
func NewSpool(dir string, r io.Reader) (*Spool, error) {
	f, err := os.CreateTemp(dir, "spool-"+uuid.NewString()+"-*")
	if err != nil {
		return nil, fmt.Errorf("create spool: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}

	return &Spool{f: f, size: n}, nil
}

// Size is the number of bytes spooled.
func (s *Spool) Size() int64 {
	return s.size
}

// Reader rewinds the spool and returns a reader over its content.
func (s *Spool) Reader() (io.Reader, error) {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return s.f, nil
}

// Remove closes and deletes the spool file. Safe to call more than once.
func (s *Spool) Remove() error {
	if s == nil || s.f == nil {
		return nil
	}
	name := s.f.Name()
	s.f.Close()
	s.f = nil
	return os.Remove(name)
}
