// Package filestore keeps records as one JSON file per record under
// <dir>/<kind>/<id>.json.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
)

const ext = ".json"

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.New(apperror.Dependency, "store.file.new", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(kind, id string) (string, error) {
	if !validName(kind) || !validName(id) {
		return "", &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      "store.file.path",
			Message: fmt.Sprintf("invalid record key %q/%q", kind, id),
		}
	}
	return filepath.Join(s.dir, kind, id+ext), nil
}

func validName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// ListIDs returns the ids of kind in lexical order. A kind that was never
// written has no ids.
func (s *Store) ListIDs(ctx context.Context, kind string) ([]string, error) {
	const op = "store.file.list_ids"

	if !validName(kind) {
		return nil, &apperror.Error{Kind: apperror.InvalidInput, Op: op, Message: "invalid kind"}
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, kind))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, apperror.New(apperror.Dependency, op, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	return ids, nil
}

func (s *Store) Read(ctx context.Context, kind, id string) ([]byte, error) {
	const op = "store.file.read"

	p, err := s.path(kind, id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: fmt.Sprintf("%s %q not found", kind, id),
		}
	}
	if err != nil {
		return nil, apperror.New(apperror.Dependency, op, err)
	}
	return data, nil
}

// Create writes a new record. It fails with Conflict when id already exists.
func (s *Store) Create(ctx context.Context, kind, id string, data []byte) error {
	const op = "store.file.create"

	p, err := s.path(kind, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}

	tmp, err := writeTemp(p, id, data)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	defer os.Remove(tmp)

	// link fails if the target exists, so concurrent creates cannot clobber
	if err := os.Link(tmp, p); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &apperror.Error{
				Kind:    apperror.Conflict,
				Op:      op,
				Message: fmt.Sprintf("%s %q already exists", kind, id),
			}
		}
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}

// Update replaces an existing record atomically: readers see the old or the
// new content, never a partial write. A record that is gone (deleted while
// its check was running) is not recreated; Update returns NotFound.
func (s *Store) Update(ctx context.Context, kind, id string, data []byte) error {
	const op = "store.file.update"

	p, err := s.path(kind, id)
	if err != nil {
		return err
	}
	if err := s.exists(op, kind, id, p); err != nil {
		return err
	}

	tmp, err := writeTemp(p, id, data)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	defer os.Remove(tmp)

	// narrow the window between the check above and the rename
	if err := s.exists(op, kind, id, p); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}

func (s *Store) exists(op, kind, id, p string) error {
	_, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: fmt.Sprintf("%s %q not found", kind, id),
		}
	}
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}

// writeTemp writes data to a temp file next to p and returns its name.
func writeTemp(p, id string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+id+"-*.tmp")
	if err != nil {
		return "", err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (s *Store) Delete(ctx context.Context, kind, id string) error {
	p, err := s.path(kind, id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperror.New(apperror.Dependency, "store.file.delete", err)
	}
	return nil
}

// Ping reports whether the data directory is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return apperror.New(apperror.Dependency, "store.file.ping", err)
	}
	return nil
}
