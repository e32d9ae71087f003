// Package logstore is an append-only, line-oriented log per key, stored as
// <dir>/<key>.log, with gzip archives stored next to it as <archive>.log.gz.
package logstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
)

const (
	activeExt  = ".log"
	archiveExt = ".log.gz"
	stripes    = 64
)

type Store struct {
	dir   string
	locks [stripes]sync.Mutex

	mu sync.Mutex
	// bytes of each active log already copied into an archive
	compressed map[string]int64
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.New(apperror.Dependency, "logstore.new", err)
	}
	return &Store{dir: dir, compressed: make(map[string]int64)}, nil
}

func (s *Store) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%stripes]
}

func (s *Store) activePath(key string) string {
	return filepath.Join(s.dir, key+activeExt)
}

func (s *Store) archivePath(key string) string {
	return filepath.Join(s.dir, key+archiveExt)
}

func checkKey(op, key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return &apperror.Error{Kind: apperror.InvalidInput, Op: op, Message: fmt.Sprintf("invalid log key %q", key)}
	}
	return nil
}

// Append writes line to the log of key, creating it if needed. A trailing
// newline is added when missing.
func (s *Store) Append(ctx context.Context, key string, line []byte) error {
	const op = "logstore.append"

	if err := checkKey(op, key); err != nil {
		return err
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line[:len(line):len(line)], '\n')
	}

	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(s.activePath(key), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return apperror.New(apperror.Dependency, op, err)
	}
	if err := f.Close(); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}

// ListActive returns the keys that currently have a non-empty uncompressed log.
func (s *Store) ListActive(ctx context.Context) ([]string, error) {
	const op = "logstore.list_active"

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperror.New(apperror.Dependency, op, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, activeExt) {
			continue
		}
		// truncated logs stay on disk until the next append
		if info, err := e.Info(); err != nil || info.Size() == 0 {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, activeExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Compress writes the current content of key's log into the archive
// archiveKey. The active log is left untouched. An existing archive is never
// overwritten: Compress fails with Conflict instead.
func (s *Store) Compress(ctx context.Context, key, archiveKey string) error {
	const op = "logstore.compress"

	if err := checkKey(op, key); err != nil {
		return err
	}
	if err := checkKey(op, archiveKey); err != nil {
		return err
	}

	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(s.activePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return &apperror.Error{Kind: apperror.NotFound, Op: op, Message: fmt.Sprintf("log %q not found", key)}
	}
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".archive-*.tmp")
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	zw.Name = key + activeExt
	if _, err := zw.Write(data); err != nil {
		tmp.Close()
		return apperror.New(apperror.Dependency, op, err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return apperror.New(apperror.Dependency, op, err)
	}
	if err := tmp.Close(); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	// link refuses to replace an archive written earlier under the same key
	if err := os.Link(tmp.Name(), s.archivePath(archiveKey)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &apperror.Error{Kind: apperror.Conflict, Op: op, Message: fmt.Sprintf("archive %q already exists", archiveKey)}
		}
		return apperror.New(apperror.Dependency, op, err)
	}

	s.mu.Lock()
	s.compressed[key] = int64(len(data))
	s.mu.Unlock()

	return nil
}

// Truncate empties key's log. When the log was compressed by this store,
// only the compressed prefix is dropped: lines appended after Compress
// survive until the next rotation.
func (s *Store) Truncate(ctx context.Context, key string) error {
	const op = "logstore.truncate"

	if err := checkKey(op, key); err != nil {
		return err
	}

	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	done, tracked := s.compressed[key]
	delete(s.compressed, key)
	s.mu.Unlock()

	path := s.activePath(key)

	if !tracked {
		if err := os.Truncate(path, 0); err != nil {
			return apperror.New(apperror.Dependency, op, err)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	if done > int64(len(data)) {
		done = int64(len(data))
	}

	// the kept tail replaces the log in one rename
	tmp, err := os.CreateTemp(s.dir, ".truncate-*.tmp")
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data[done:]); err != nil {
		tmp.Close()
		return apperror.New(apperror.Dependency, op, err)
	}
	if err := tmp.Close(); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}

// Decompress returns the original content of the archive archiveKey.
func (s *Store) Decompress(ctx context.Context, archiveKey string) ([]byte, error) {
	const op = "logstore.decompress"

	if err := checkKey(op, archiveKey); err != nil {
		return nil, err
	}

	f, err := os.Open(s.archivePath(archiveKey))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &apperror.Error{Kind: apperror.NotFound, Op: op, Message: fmt.Sprintf("archive %q not found", archiveKey)}
	}
	if err != nil {
		return nil, apperror.New(apperror.Dependency, op, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, apperror.New(apperror.Internal, op, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, apperror.New(apperror.Internal, op, err)
	}
	return buf.Bytes(), nil
}

// ListArchives returns the archive keys that belong to key, oldest first.
func (s *Store) ListArchives(ctx context.Context, key string) ([]string, error) {
	const op = "logstore.list_archives"

	if err := checkKey(op, key); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, key+"-*"+archiveExt))
	if err != nil {
		return nil, apperror.New(apperror.Internal, op, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), archiveExt))
	}
	sort.Strings(out)
	return out, nil
}
