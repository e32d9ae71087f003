package logstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	return s, dir
}

func readActive(t *testing.T, dir, key string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, key+".log"))
	require.NoError(t, err)
	return string(data)
}

func TestAppendAddsNewline(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", []byte(`{"n":1}`)))
	require.NoError(t, s.Append(ctx, "a", []byte("{\"n\":2}\n")))

	assert.Equal(t, "{\"n\":1}\n{\"n\":2}\n", readActive(t, dir, "a"))
}

func TestConcurrentAppendsKeepLinesWhole(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, "a", []byte(fmt.Sprintf(`{"n":%d}`, i))))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(readActive(t, dir, "a"), "\n"), "\n")
	require.Len(t, lines, 50)
	for _, l := range lines {
		assert.Regexp(t, `^\{"n":\d+\}$`, l)
	}
}

func TestListActiveSkipsArchivesAndEmptyLogs(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "b", []byte("x")))
	require.NoError(t, s.Append(ctx, "a", []byte("y")))
	require.NoError(t, s.Append(ctx, "c", []byte("z")))
	require.NoError(t, s.Compress(ctx, "c", "c-1"))
	require.NoError(t, s.Truncate(ctx, "c"))

	keys, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestCompressTruncateDecompress(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", []byte("one")))
	require.NoError(t, s.Append(ctx, "a", []byte("two")))

	require.NoError(t, s.Compress(ctx, "a", "a-1718000000000"))
	assert.FileExists(t, filepath.Join(dir, "a-1718000000000.log.gz"))
	// compress leaves the active log alone
	assert.Equal(t, "one\ntwo\n", readActive(t, dir, "a"))

	require.NoError(t, s.Truncate(ctx, "a"))
	assert.Equal(t, "", readActive(t, dir, "a"))

	data, err := s.Decompress(ctx, "a-1718000000000")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))

	archives, err := s.ListArchives(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1718000000000"}, archives)
}

func TestTruncateKeepsLinesAppendedAfterCompress(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", []byte("before")))
	require.NoError(t, s.Compress(ctx, "a", "a-1"))
	require.NoError(t, s.Append(ctx, "a", []byte("after")))
	require.NoError(t, s.Truncate(ctx, "a"))

	assert.Equal(t, "after\n", readActive(t, dir, "a"))
}

func TestCompressMissingLog(t *testing.T) {
	s, _ := newStore(t)

	err := s.Compress(context.Background(), "ghost", "ghost-1")
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestDecompressMissingArchive(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Decompress(context.Background(), "ghost-1")
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestRejectsBadKeys(t *testing.T) {
	s, _ := newStore(t)

	err := s.Append(context.Background(), "../x", []byte("y"))
	assert.True(t, apperror.IsKind(err, apperror.InvalidInput))
}

func TestCompressNeverOverwritesArchive(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", []byte("first")))
	require.NoError(t, s.Compress(ctx, "a", "a-1718000000000"))
	require.NoError(t, s.Truncate(ctx, "a"))

	// a second rotation within the same millisecond
	require.NoError(t, s.Append(ctx, "a", []byte("second")))
	err := s.Compress(ctx, "a", "a-1718000000000")
	assert.True(t, apperror.IsKind(err, apperror.Conflict))

	data, err := s.Decompress(ctx, "a-1718000000000")
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))
}

func TestTruncateReplacesLogInPlace(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", []byte("before")))
	require.NoError(t, s.Compress(ctx, "a", "a-1"))
	require.NoError(t, s.Append(ctx, "a", []byte("after")))
	require.NoError(t, s.Truncate(ctx, "a"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a.log", "a-1.log.gz"}, names)

	// appends keep going to the replaced file
	require.NoError(t, s.Append(ctx, "a", []byte("later")))
	assert.Equal(t, "after\nlater\n", readActive(t, dir, "a"))
}
