package result

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/darwin-luque/uptime-monitor/internals/modules/alert"
	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal records the order in which the fakes are called.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

type fakeRecords struct {
	j    *journal
	err  error
	data map[string][]byte
}

func (f *fakeRecords) Update(ctx context.Context, kind, id string, data []byte) error {
	f.j.add("update")
	if f.err != nil {
		return f.err
	}
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[kind+"/"+id] = data
	return nil
}

type fakeLogs struct {
	j     *journal
	err   error
	lines map[string][][]byte
}

func (f *fakeLogs) Append(ctx context.Context, key string, line []byte) error {
	f.j.add("append")
	if f.err != nil {
		return f.err
	}
	if f.lines == nil {
		f.lines = map[string][][]byte{}
	}
	f.lines[key] = append(f.lines[key], line)
	return nil
}

type fakeNotifier struct {
	j    *journal
	err  error
	sent []alert.Message
}

func (f *fakeNotifier) Send(ctx context.Context, msg alert.Message) error {
	f.j.add("notify")
	f.sent = append(f.sent, msg)
	return f.err
}

type fixture struct {
	j        *journal
	records  *fakeRecords
	logs     *fakeLogs
	notifier *fakeNotifier
	proc     *ResultProcessor
}

func newFixture() *fixture {
	j := &journal{}
	f := &fixture{
		j:        j,
		records:  &fakeRecords{j: j},
		logs:     &fakeLogs{j: j},
		notifier: &fakeNotifier{j: j},
	}
	log := zerolog.Nop()
	f.proc = NewResultProcessor(f.records, f.logs, f.notifier, &log)
	return f
}

var (
	lastRun = time.UnixMilli(1718000000000).UTC()
	now     = time.UnixMilli(1718000060000).UTC()
)

func baseCheck() check.Check {
	return check.Check{
		ID:             "abcdefghij0123456789",
		OwnerID:        "55512345",
		Protocol:       check.HTTPS,
		URL:            "example.com",
		Method:         check.Get,
		SuccessCodes:   []int{200, 201},
		TimeoutSeconds: 3,
		State:          check.Down,
	}
}

func storedRecord(t *testing.T, f *fixture, id string) map[string]any {
	t.Helper()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(f.records.data[check.Kind+"/"+id], &rec))
	return rec
}

func TestRecoveryAlertsOwner(t *testing.T) {
	f := newFixture()
	c := baseCheck()
	c.LastCheck = &lastRun

	report := f.proc.Process(context.Background(), c, check.Responded(200), now)

	assert.Equal(t, Report{
		CheckID:   c.ID,
		Previous:  check.Down,
		State:     check.Up,
		Alert:     true,
		Logged:    true,
		Persisted: true,
		Notified:  true,
	}, report)
	assert.Equal(t, []string{"append", "update", "notify"}, f.j.events)

	rec := storedRecord(t, f, c.ID)
	assert.Equal(t, "up", rec["state"])
	assert.Equal(t, float64(now.UnixMilli()), rec["lastCheck"])

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Alert: your check for GET https://example.com is currently up", f.notifier.sent[0].Text())
}

func TestFirstRunNeverAlerts(t *testing.T) {
	f := newFixture()
	c := baseCheck()
	c.State = check.Up

	report := f.proc.Process(context.Background(), c, check.Failed("timeout"), now)

	assert.Equal(t, check.Down, report.State)
	assert.False(t, report.Alert)
	assert.True(t, report.Persisted)
	assert.False(t, report.Notified)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, []string{"append", "update"}, f.j.events)

	rec := storedRecord(t, f, c.ID)
	assert.Equal(t, "down", rec["state"])
	assert.Equal(t, float64(now.UnixMilli()), rec["lastCheck"])
}

func TestUnchangedStateDoesNotAlert(t *testing.T) {
	f := newFixture()
	c := baseCheck()
	c.State = check.Up
	c.LastCheck = &lastRun

	report := f.proc.Process(context.Background(), c, check.Responded(201), now)

	assert.Equal(t, check.Up, report.State)
	assert.False(t, report.Alert)
	assert.Empty(t, f.notifier.sent)
}

func TestLogEntryCarriesPreviousCheck(t *testing.T) {
	f := newFixture()
	c := baseCheck()
	c.LastCheck = &lastRun

	f.proc.Process(context.Background(), c, check.Responded(500), now)

	lines := f.logs.lines[c.ID]
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "down", entry["state"])
	assert.Equal(t, false, entry["alert"])
	assert.Equal(t, float64(now.UnixMilli()), entry["time"])
	assert.Equal(t, map[string]any{"responseCode": float64(500)}, entry["outcome"])

	logged := entry["check"].(map[string]any)
	assert.Equal(t, float64(lastRun.UnixMilli()), logged["lastCheck"])
}

func TestPersistFailureSuppressesAlert(t *testing.T) {
	f := newFixture()
	f.records.err = errors.New("disk full")
	c := baseCheck()
	c.LastCheck = &lastRun

	report := f.proc.Process(context.Background(), c, check.Responded(200), now)

	assert.True(t, report.Alert)
	assert.True(t, report.Logged)
	assert.False(t, report.Persisted)
	assert.False(t, report.Notified)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, []string{"append", "update"}, f.j.events)
}

func TestDeletedCheckIsNotAlerted(t *testing.T) {
	f := newFixture()
	f.records.err = &apperror.Error{Kind: apperror.NotFound, Op: "store.file.update", Message: "checks not found"}
	c := baseCheck()
	c.LastCheck = &lastRun

	report := f.proc.Process(context.Background(), c, check.Responded(200), now)

	assert.True(t, report.Logged)
	assert.False(t, report.Persisted)
	assert.False(t, report.Notified)
	assert.Empty(t, f.notifier.sent)
}

func TestLogFailureDoesNotStopProcessing(t *testing.T) {
	f := newFixture()
	f.logs.err = errors.New("permission denied")
	c := baseCheck()
	c.LastCheck = &lastRun

	report := f.proc.Process(context.Background(), c, check.Responded(200), now)

	assert.False(t, report.Logged)
	assert.True(t, report.Persisted)
	assert.True(t, report.Notified)
	assert.Equal(t, []string{"append", "update", "notify"}, f.j.events)
}

func TestNotifyFailureIsReported(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("sms gateway down")
	c := baseCheck()
	c.LastCheck = &lastRun

	report := f.proc.Process(context.Background(), c, check.Responded(200), now)

	assert.True(t, report.Persisted)
	assert.False(t, report.Notified)
	assert.Len(t, f.notifier.sent, 1, "no retry")
}
