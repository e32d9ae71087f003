package check

import (
	"testing"
	"time"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRecord = `{
	"id": "abcdefghij0123456789",
	"ownerId": "55512345",
	"protocol": "https",
	"url": "example.com/health?x=1",
	"method": "get",
	"successCodes": [201, 200, 200],
	"timeoutSeconds": 3,
	"state": "up",
	"lastCheck": 1718000000000
}`

func TestParseValidRecord(t *testing.T) {
	c, err := NewValidator().Parse([]byte(validRecord))
	require.NoError(t, err)

	assert.Equal(t, "abcdefghij0123456789", c.ID)
	assert.Equal(t, "55512345", c.OwnerID)
	assert.Equal(t, HTTPS, c.Protocol)
	assert.Equal(t, "example.com/health?x=1", c.URL)
	assert.Equal(t, Get, c.Method)
	assert.Equal(t, []int{200, 201}, c.SuccessCodes)
	assert.Equal(t, 3, c.TimeoutSeconds)
	assert.Equal(t, Up, c.State)
	require.NotNil(t, c.LastCheck)
	assert.Equal(t, int64(1718000000000), c.LastCheck.UnixMilli())
	assert.Equal(t, "https://example.com/health?x=1", c.Target())
	assert.Equal(t, 3*time.Second, c.Timeout())
}

func base() map[string]any {
	return map[string]any{
		"id":             "abcdefghij0123456789",
		"ownerId":        "55512345",
		"protocol":       "http",
		"url":            "example.com",
		"method":         "post",
		"successCodes":   []any{200.0},
		"timeoutSeconds": 5.0,
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		value  any
		reason string
	}{
		{"short id", "id", "abc", "id failed on 'len'"},
		{"id not a string", "id", 12345678901234567890.0, "id failed on 'len'"},
		{"long owner", "ownerId", "555123456", "ownerId failed on 'len'"},
		{"ftp protocol", "protocol", "ftp", "protocol failed on 'oneof'"},
		{"blank url", "url", "   ", "url failed on 'required'"},
		{"patch method", "method", "patch", "method failed on 'oneof'"},
		{"uppercase method", "method", "GET", "method failed on 'oneof'"},
		{"empty codes", "successCodes", []any{}, "successCodes failed on 'min'"},
		{"codes not an array", "successCodes", 200.0, "successCodes failed on 'min'"},
		{"fractional code", "successCodes", []any{200.5}, "successCodes failed on 'min'"},
		{"timeout zero", "timeoutSeconds", 0.0, "timeoutSeconds failed on 'min'"},
		{"timeout too large", "timeoutSeconds", 6.0, "timeoutSeconds failed on 'max'"},
		{"fractional timeout", "timeoutSeconds", 2.5, "timeoutSeconds failed on 'min'"},
		{"timeout as string", "timeoutSeconds", "3", "timeoutSeconds failed on 'min'"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base()
			raw[tt.field] = tt.value

			_, err := v.Validate(raw)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.InvalidInput))

			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Message, tt.reason)
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	_, err := NewValidator().Validate(map[string]any{})
	require.Error(t, err)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	for _, f := range []string{"id", "ownerId", "protocol", "url", "method", "successCodes", "timeoutSeconds"} {
		assert.Contains(t, appErr.Message, f)
	}
}

func TestValidateDefaults(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		state     any
		lastCheck any
		wantState State
		wantLast  bool
	}{
		{"absent", nil, nil, Down, false},
		{"unknown state", "degraded", nil, Down, false},
		{"down kept", "down", 1.0, Down, true},
		{"zero lastCheck", "up", 0.0, Up, false},
		{"negative lastCheck", "up", -5.0, Up, false},
		{"fractional lastCheck", "up", 1.5, Up, false},
		{"string lastCheck", "up", "1718000000000", Up, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base()
			if tt.state != nil {
				raw["state"] = tt.state
			}
			if tt.lastCheck != nil {
				raw["lastCheck"] = tt.lastCheck
			}

			c, err := v.Validate(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, c.State)
			assert.Equal(t, tt.wantLast, c.LastCheck != nil)
		})
	}
}

func TestValidateTrims(t *testing.T) {
	raw := base()
	raw["id"] = "  abcdefghij0123456789 "
	raw["ownerId"] = " 55512345"
	raw["url"] = " example.com/path "

	c, err := NewValidator().Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij0123456789", c.ID)
	assert.Equal(t, "55512345", c.OwnerID)
	assert.Equal(t, "example.com/path", c.URL)
}

func TestParseRejectsNonObject(t *testing.T) {
	v := NewValidator()

	for _, in := range []string{`not json`, `[1,2]`, `null`, ``} {
		_, err := v.Parse([]byte(in))
		assert.True(t, apperror.IsKind(err, apperror.InvalidInput), in)
	}
}
