package check

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// candidate holds the fields pulled out of a raw record before the rules
// are applied. A field of the wrong JSON type is left at its zero value and
// fails its rule.
type candidate struct {
	ID             string `json:"id" validate:"len=20"`
	OwnerID        string `json:"ownerId" validate:"len=8"`
	Protocol       string `json:"protocol" validate:"oneof=http https"`
	URL            string `json:"url" validate:"required"`
	Method         string `json:"method" validate:"oneof=get post put delete"`
	SuccessCodes   []int  `json:"successCodes" validate:"min=1"`
	TimeoutSeconds int    `json:"timeoutSeconds" validate:"min=1,max=5"`
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	// report json names so messages match the stored record
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Parse decodes a stored record and validates it.
func (v *Validator) Parse(data []byte) (Check, error) {
	const op = "check.validator.parse"

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return Check{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Err:     err,
			Message: "record is not a JSON object",
		}
	}

	return v.Validate(raw)
}

// Validate normalizes a raw record into a Check. state and lastCheck never
// cause a rejection: they fall back to down and "never run".
func (v *Validator) Validate(raw map[string]any) (Check, error) {
	const op = "check.validator.validate"

	c := candidate{
		ID:             trimmed(raw["id"]),
		OwnerID:        trimmed(raw["ownerId"]),
		Protocol:       str(raw["protocol"]),
		URL:            trimmed(raw["url"]),
		Method:         str(raw["method"]),
		SuccessCodes:   intSet(raw["successCodes"]),
		TimeoutSeconds: intOrZero(raw["timeoutSeconds"]),
	}

	if err := v.validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return Check{}, apperror.New(apperror.Internal, op, err)
		}
		return Check{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Err:     err,
			Message: describe(ve),
		}
	}

	out := Check{
		ID:             c.ID,
		OwnerID:        c.OwnerID,
		Protocol:       Protocol(c.Protocol),
		URL:            c.URL,
		Method:         Method(c.Method),
		SuccessCodes:   c.SuccessCodes,
		TimeoutSeconds: c.TimeoutSeconds,
		State:          Down,
	}

	if s, _ := raw["state"].(string); s == string(Up) || s == string(Down) {
		out.State = State(s)
	}
	if ms, ok := asInt(raw["lastCheck"]); ok && ms > 0 {
		out.LastCheck = millis(ms)
	}

	return out, nil
}

func describe(ve validator.ValidationErrors) string {
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return "invalid check record: " + strings.Join(fields, ", ")
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func trimmed(v any) string {
	return strings.TrimSpace(str(v))
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// asInt accepts any JSON number with an integral value.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

func intOrZero(v any) int {
	i, ok := asInt(v)
	if !ok || i > math.MaxInt32 || i < math.MinInt32 {
		return 0
	}
	return int(i)
}

// intSet returns the sorted distinct integers of a JSON array, or nil if v
// is not an array of integers.
func intSet(v any) []int {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil
	}

	out := make([]int, 0, len(items))
	for _, item := range items {
		i, ok := asInt(item)
		if !ok || i > math.MaxInt32 || i < math.MinInt32 {
			return nil
		}
		out = append(out, int(i))
	}

	slices.Sort(out)
	return slices.Compact(out)
}
