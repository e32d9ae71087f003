package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	middle "github.com/darwin-luque/uptime-monitor/internals/middleware"
	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/darwin-luque/uptime-monitor/internals/modules/scheduler"
	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecords struct {
	data    map[string][]byte
	pingErr error
}

func (m *memRecords) ListIDs(ctx context.Context, kind string) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memRecords) Read(ctx context.Context, kind, id string) ([]byte, error) {
	data, ok := m.data[id]
	if !ok {
		return nil, &apperror.Error{Kind: apperror.NotFound, Op: "test.read", Message: "record not found"}
	}
	return data, nil
}

func (m *memRecords) Ping(ctx context.Context) error {
	return m.pingErr
}

type memArchives struct {
	archives map[string][]byte
}

func (m *memArchives) ListArchives(ctx context.Context, key string) ([]string, error) {
	var out []string
	for k := range m.archives {
		if len(k) > len(key) && k[:len(key)+1] == key+"-" {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memArchives) Decompress(ctx context.Context, archiveKey string) ([]byte, error) {
	data, ok := m.archives[archiveKey]
	if !ok {
		return nil, &apperror.Error{Kind: apperror.NotFound, Op: "test.decompress", Message: "archive not found"}
	}
	return data, nil
}

type fixedStats struct{}

func (fixedStats) Stats() scheduler.Stats {
	return scheduler.Stats{ChecksListed: 3, Executed: 7}
}

const (
	checkA = "aaaaaaaaaaaaaaaaaaaa"
	checkB = "bbbbbbbbbbbbbbbbbbbb"
	owner  = "55512345"
)

func encoded(t *testing.T, id string, state check.State) []byte {
	t.Helper()

	last := time.UnixMilli(1718000000000)
	data, err := check.Encode(check.Check{
		ID:             id,
		OwnerID:        owner,
		Protocol:       check.HTTPS,
		URL:            "example.com",
		Method:         check.Get,
		SuccessCodes:   []int{200},
		TimeoutSeconds: 2,
		State:          state,
		LastCheck:      &last,
	})
	require.NoError(t, err)
	return data
}

func newRouter(t *testing.T, records *memRecords, maxChecks int) chi.Router {
	t.Helper()

	archives := &memArchives{archives: map[string][]byte{
		checkA + "-1718000000000": []byte("{\"state\":\"up\"}\n"),
	}}
	svc := NewService(records, archives, fixedStats{}, middle.NewRequestStats(), check.NewValidator(), maxChecks)
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Get("/status", h.Status)
	r.Mount("/checks", Routes(h))
	return r
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestListChecks(t *testing.T) {
	records := &memRecords{data: map[string][]byte{
		checkA: encoded(t, checkA, check.Up),
		checkB: encoded(t, checkB, check.Down),
		"junk": []byte(`{"id":"short"}`),
	}}
	r := newRouter(t, records, 1)

	rec, body := get(t, r, "/checks")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(3), data["total"])
	assert.Equal(t, float64(1), data["invalid"])
	assert.Len(t, data["checks"], 3)
	assert.Equal(t, []any{owner}, data["owners_over_limit"])
}

func TestGetCheck(t *testing.T) {
	records := &memRecords{data: map[string][]byte{checkA: encoded(t, checkA, check.Up)}}
	r := newRouter(t, records, 5)

	rec, body := get(t, r, "/checks/"+checkA)
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, "https://example.com", data["target"])
	assert.Equal(t, "GET", data["method"])
	assert.Equal(t, "up", data["state"])

	rec, body = get(t, r, "/checks/"+checkB)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestMalformedCheckIsBadRequest(t *testing.T) {
	records := &memRecords{data: map[string][]byte{checkA: []byte(`[1,2]`)}}
	r := newRouter(t, records, 5)

	rec, _ := get(t, r, "/checks/"+checkA)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArchives(t *testing.T) {
	r := newRouter(t, &memRecords{}, 5)

	rec, body := get(t, r, "/checks/"+checkA+"/archives")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{checkA + "-1718000000000"}, body["data"].(map[string]any)["archives"])

	rec, _ = get(t, r, "/checks/"+checkA+"/archives/"+checkA+"-1718000000000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Equal(t, "{\"state\":\"up\"}\n", rec.Body.String())

	// archives of another check are not reachable through this one
	rec, _ = get(t, r, "/checks/"+checkB+"/archives/"+checkA+"-1718000000000")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthReadyStatus(t *testing.T) {
	records := &memRecords{}
	r := newRouter(t, records, 5)

	rec, _ := get(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = get(t, r, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	records.pingErr = apperror.New(apperror.Dependency, "test.ping", errors.New("connection refused"))
	rec, _ = get(t, r, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, body := get(t, r, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	sched := body["data"].(map[string]any)["scheduler"].(map[string]any)
	assert.Equal(t, float64(7), sched["executed"])
}
