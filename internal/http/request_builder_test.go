//go:build !integration

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/circuitbreaker"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/repository"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	middleware.RequestID()(c)
	return c, w
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"pattern":"^/hackathons"}`},
		{name: "fails Validate", body: `{}`, wantErr: true},
		{name: "invalid json", body: `{"pattern":`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodPost, "/", tt.body)

			req, err := BindJSON[dto.InvalidateCacheRequest](c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "^/hackathons", req.Pattern)
		})
	}
}

func TestBindQuery(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/?status=open&page=2", "")

	q, err := BindQuery[dto.ListHackathonsQuery](c)

	require.NoError(t, err)
	assert.Equal(t, "open", q.Status)
	assert.Equal(t, 2, q.Page)
}

func TestResponseBuilder_Success(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/", "")

	NewResponseBuilder(c).Cached(service.CacheStale, map[string]int{"n": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STALE", w.Header().Get(middleware.CacheStatusHeader))
	var resp dto.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), resp.RequestID)
	assert.NotZero(t, resp.Timestamp)
	assert.Equal(t, map[string]any{"n": float64(1)}, resp.Data)
}

func TestResponseBuilder_ServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: repository.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: dto.ErrCodeNotFound},
		{name: "invalid id", err: repository.ErrInvalidID, wantStatus: http.StatusBadRequest, wantCode: dto.ErrCodeInvalidRequest},
		{name: "invalid input", err: fmt.Errorf("%w: name is empty", service.ErrInvalidInput), wantStatus: http.StatusBadRequest, wantCode: dto.ErrCodeInvalidRequest},
		{name: "duplicate", err: repository.ErrDuplicate, wantStatus: http.StatusConflict, wantCode: dto.ErrCodeConflict},
		{name: "transition", err: fmt.Errorf("%w: open to upcoming", service.ErrInvalidTransition), wantStatus: http.StatusConflict, wantCode: dto.ErrCodeConflict},
		{name: "registration closed", err: service.ErrRegistrationClosed, wantStatus: http.StatusConflict, wantCode: dto.ErrCodeConflict},
		{name: "unknown route", err: service.ErrUnknownRoute, wantStatus: http.StatusBadRequest, wantCode: dto.ErrCodeInvalidRequest},
		{name: "circuit open", err: circuitbreaker.ErrCircuitOpen, wantStatus: http.StatusServiceUnavailable, wantCode: dto.ErrCodeUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantCode: dto.ErrCodeTimeout},
		{name: "anything else", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/", "")

			NewResponseBuilder(c).ServiceError(tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.NotEmpty(t, resp.Message)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestResponseBuilder_ErrorIsTranslated(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/", "")
	c.Request.Header.Set("Accept-Language", "pt")

	NewResponseBuilder(c).ServiceError(repository.ErrNotFound)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	en := httptest.NewRecorder()
	ce, _ := gin.CreateTestContext(en)
	ce.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	NewResponseBuilder(ce).ServiceError(repository.ErrNotFound)
	var enResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(en.Body.Bytes(), &enResp))

	assert.NotEqual(t, enResp.Message, resp.Message)
}

func TestResponseBuilder_ValidationError(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/", "")

	NewResponseBuilder(c).ValidationError(&dto.ValidationError{Field: "status", Message: "must be known"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "status: must be known", resp.Message)
}

func TestResponseBuilder_AttachesErrorForLogging(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/", "")

	NewResponseBuilder(c).ServiceError(errors.New("store exploded"))

	require.Len(t, c.Errors, 1)
	assert.EqualError(t, c.Errors[0].Err, "store exploded")
}
