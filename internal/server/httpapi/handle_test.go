package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/logging"
)

func newBufferLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewJSONLogger(&buf, "debug"), &buf
}

func TestHandle_ErrorKinds(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{common.BadRequest("name is required"), http.StatusBadRequest, "BAD_REQUEST", "name is required"},
		{common.Unauthorized("token expired"), http.StatusUnauthorized, "UNAUTHORIZED", "token expired"},
		{common.Forbidden("admin role required"), http.StatusForbidden, "FORBIDDEN", "admin role required"},
		{fmt.Errorf("get: %w", common.NotFound("body part not found")), http.StatusNotFound, "NOT_FOUND", "body part not found"},
		{common.Wrap(common.KindDuplicateEntry, errors.New("E11000"), "username already exists"), http.StatusConflict, "DUPLICATE_ENTRY", "username already exists"},
		{common.New(common.KindTooManyRequests, "slow down"), http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "slow down"},
		{errors.New("dial tcp 10.0.0.1:27017: connection refused"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			logger, buf := newBufferLogger()
			h := Handle(logger, func(*http.Request) (*Response, error) { return nil, tt.err })

			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/api/bodyPart", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"success":false,"message":%q,"code":%q}`, tt.message, tt.code), rec.Body.String())
			if tt.code == "INTERNAL" {
				assert.Contains(t, buf.String(), "connection refused")
				assert.NotContains(t, rec.Body.String(), "connection refused")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestHandle_Success(t *testing.T) {
	logger, _ := newBufferLogger()
	h := Handle(logger, func(*http.Request) (*Response, error) { return Created("x", "made"), nil })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"made","data":"x"}`, rec.Body.String())
}

func TestHandle_RecoversPanic(t *testing.T) {
	logger, buf := newBufferLogger()
	h := Handle(logger, func(*http.Request) (*Response, error) { panic("boom") })

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error","code":"INTERNAL"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "panic: boom")
	assert.Contains(t, buf.String(), "stack")
}

func TestStatusFor_EveryKind(t *testing.T) {
	for k := common.KindInternal; k <= common.KindTooManyRequests; k++ {
		assert.NotZero(t, StatusFor(k), k.Code())
	}
	assert.Equal(t, http.StatusInternalServerError, StatusFor(common.Kind(99)))
}
