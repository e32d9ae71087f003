package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Equal(t, "store.redis.read: connection refused", New(Dependency, "store.redis.read", cause).Error())
	assert.Equal(t, "check.validator.validate: bad id", (&Error{Op: "check.validator.validate", Message: "bad id"}).Error())
	assert.Equal(t, "connection refused", (&Error{Err: cause}).Error())
	assert.Equal(t, "unknown error", (&Error{}).Error())
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(NotFound, "store.file.read", nil)
	wrapped := fmt.Errorf("pipeline: %w", base)

	assert.True(t, IsKind(wrapped, NotFound))
	assert.False(t, IsKind(wrapped, Internal))
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
}

func TestStackCapturedForInfrastructureKinds(t *testing.T) {
	assert.NotEmpty(t, New(Dependency, "op", nil).Stack)
	assert.Empty(t, New(InvalidInput, "op", nil).Stack)

	e := (&Error{Kind: Internal}).WithErr(errors.New("boom"))
	assert.NotEmpty(t, e.Stack)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(New(InvalidInput, "op", nil)))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(New(Dependency, "op", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
