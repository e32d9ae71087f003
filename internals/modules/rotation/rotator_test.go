package rotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darwin-luque/uptime-monitor/pkg/logstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogs struct {
	keys        []string
	listErr     error
	compressErr map[string]error
	truncateErr map[string]error

	calls []string
}

func (f *fakeLogs) ListActive(ctx context.Context) ([]string, error) {
	f.calls = append(f.calls, "list")
	return f.keys, f.listErr
}

func (f *fakeLogs) Compress(ctx context.Context, key, archiveKey string) error {
	f.calls = append(f.calls, "compress "+key+" "+archiveKey)
	return f.compressErr[key]
}

func (f *fakeLogs) Truncate(ctx context.Context, key string) error {
	f.calls = append(f.calls, "truncate "+key)
	return f.truncateErr[key]
}

func newRotator(logs LogStore, at time.Time) *Rotator {
	log := zerolog.Nop()
	r := NewRotator(logs, &log)
	r.now = func() time.Time { return at }
	return r
}

func TestRotateAllIsolatesFailures(t *testing.T) {
	at := time.UnixMilli(1718000000000)
	logs := &fakeLogs{
		keys:        []string{"A", "B"},
		compressErr: map[string]error{"A": errors.New("disk full")},
	}

	summary, err := newRotator(logs, at).RotateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, summary.Rotated)
	assert.Equal(t, []string{"A"}, summary.Failed)
	assert.Equal(t, []string{
		"list",
		"compress A A-1718000000000",
		"compress B B-1718000000000",
		"truncate B",
	}, logs.calls, "A must not be truncated")
}

func TestRotateAllListFailureSkipsCycle(t *testing.T) {
	logs := &fakeLogs{listErr: errors.New("permission denied")}

	_, err := newRotator(logs, time.Now()).RotateAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"list"}, logs.calls)
}

func TestRotateAllTruncateFailure(t *testing.T) {
	logs := &fakeLogs{
		keys:        []string{"A"},
		truncateErr: map[string]error{"A": errors.New("busy")},
	}

	summary, err := newRotator(logs, time.Now()).RotateAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Rotated)
	assert.Equal(t, []string{"A"}, summary.Failed)
}

func TestRotateAllWithLogStore(t *testing.T) {
	store, err := logstore.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "A", []byte(`{"state":"up"}`)))
	require.NoError(t, store.Append(ctx, "B", []byte(`{"state":"down"}`)))

	at := time.UnixMilli(1718000000000)
	summary, err := newRotator(store, at).RotateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, summary.Rotated)

	data, err := store.Decompress(ctx, "A-1718000000000")
	require.NoError(t, err)
	assert.Equal(t, "{\"state\":\"up\"}\n", string(data))

	// emptied logs are not rotated again
	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRotateTwiceInOneMillisecondKeepsBothArchives(t *testing.T) {
	store, err := logstore.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	at := time.UnixMilli(1718000000000)
	r := newRotator(store, at)

	require.NoError(t, store.Append(ctx, "A", []byte("first")))
	_, err = r.RotateAll(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, "A", []byte("second")))
	summary, err := r.RotateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, summary.Rotated)

	archives, err := store.ListArchives(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1718000000000", "A-1718000000000-1"}, archives)

	data, err := store.Decompress(ctx, "A-1718000000000")
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	data, err = store.Decompress(ctx, "A-1718000000000-1")
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}
