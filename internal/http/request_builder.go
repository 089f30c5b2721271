package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/circuitbreaker"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/i18n"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/repository"
	"github.com/guttosm/hackathon-service/internal/service"
)

// Response DTO pools for reducing allocations.
var (
	successResponsePool = sync.Pool{
		New: func() any {
			return &dto.SuccessResponse{}
		},
	}

	errorResponsePool = sync.Pool{
		New: func() any {
			return &dto.ErrorResponse{}
		},
	}
)

func getSuccessResponse() *dto.SuccessResponse {
	if resp, ok := successResponsePool.Get().(*dto.SuccessResponse); ok {
		return resp
	}
	return &dto.SuccessResponse{}
}

func putSuccessResponse(resp *dto.SuccessResponse) {
	resp.Data = nil
	resp.RequestID = ""
	resp.Timestamp = time.Time{}
	successResponsePool.Put(resp)
}

func getErrorResponse() *dto.ErrorResponse {
	if resp, ok := errorResponsePool.Get().(*dto.ErrorResponse); ok {
		return resp
	}
	return &dto.ErrorResponse{}
}

func putErrorResponse(resp *dto.ErrorResponse) {
	resp.Error = ""
	resp.Message = ""
	resp.RequestID = ""
	resp.Timestamp = time.Time{}
	resp.Details = nil
	errorResponsePool.Put(resp)
}

// Validator is implemented by request DTOs that check rules binding tags
// cannot express.
type Validator interface {
	Validate() error
}

// BindJSON decodes the request body into T and validates it when T
// implements Validator.
func BindJSON[T any](c *gin.Context) (*T, error) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return validate(&req)
}

// BindQuery decodes the query string into T and validates it when T
// implements Validator.
func BindQuery[T any](c *gin.Context) (*T, error) {
	var req T
	if err := c.ShouldBindQuery(&req); err != nil {
		return nil, err
	}
	return validate(&req)
}

func validate[T any](req *T) (*T, error) {
	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// ResponseBuilder writes the API's success and error envelopes.
type ResponseBuilder struct {
	c *gin.Context
}

// NewResponseBuilder creates a new response builder for the given context.
func NewResponseBuilder(c *gin.Context) *ResponseBuilder {
	return &ResponseBuilder{c: c}
}

// Success sends data wrapped in a SuccessResponse.
func (b *ResponseBuilder) Success(statusCode int, data any) {
	resp := getSuccessResponse()
	resp.Data = data
	resp.RequestID = middleware.GetRequestID(b.c)
	resp.Timestamp = time.Now()

	// Gin serializes synchronously, so the response can go back to the pool.
	b.c.JSON(statusCode, resp)
	putSuccessResponse(resp)
}

// SuccessOK sends a 200 OK response with the given data.
func (b *ResponseBuilder) SuccessOK(data any) {
	b.Success(http.StatusOK, data)
}

// SuccessCreated sends a 201 Created response with the given data.
func (b *ResponseBuilder) SuccessCreated(data any) {
	b.Success(http.StatusCreated, data)
}

// Cached sends a 200 OK read response and reports where it was served from.
func (b *ResponseBuilder) Cached(status service.CacheStatus, data any) {
	b.c.Header(middleware.CacheStatusHeader, string(status))
	b.SuccessOK(data)
}

// Error sends an error response with a translated message.
func (b *ResponseBuilder) Error(statusCode int, messageKey string, err error) {
	b.ErrorWithMessage(statusCode, i18n.T(b.c, messageKey), err)
}

// ErrorWithMessage sends an error response with a literal message.
func (b *ResponseBuilder) ErrorWithMessage(statusCode int, message string, err error) {
	resp := getErrorResponse()
	resp.Error = dto.ErrCodeFromStatus(statusCode)
	resp.Message = message
	resp.RequestID = middleware.GetRequestID(b.c)
	resp.Timestamp = time.Now()

	// Attached for the error handler middleware to log.
	if err != nil {
		_ = b.c.Error(err)
	}

	b.c.AbortWithStatusJSON(statusCode, resp)
	putErrorResponse(resp)
}

// ValidationError answers 400 for a request that failed binding or validation.
func (b *ResponseBuilder) ValidationError(err error) {
	var ve *dto.ValidationError
	if errors.As(err, &ve) {
		b.ErrorWithMessage(http.StatusBadRequest, ve.Error(), nil)
		return
	}
	b.Error(http.StatusBadRequest, i18n.ErrKeyInvalidRequestBody, err)
}

// ServiceError maps an error from the service or repository layer to a
// status code and translated message.
func (b *ResponseBuilder) ServiceError(err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		b.Error(http.StatusNotFound, i18n.ErrKeyNotFound, nil)
	case errors.Is(err, repository.ErrInvalidID):
		b.Error(http.StatusBadRequest, i18n.ErrKeyInvalidID, nil)
	case errors.Is(err, service.ErrInvalidInput):
		b.ErrorWithMessage(http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicate):
		b.Error(http.StatusConflict, i18n.ErrKeyConflict, nil)
	case errors.Is(err, service.ErrInvalidTransition):
		b.Error(http.StatusConflict, i18n.ErrKeyInvalidTransition, nil)
	case errors.Is(err, service.ErrRegistrationClosed):
		b.Error(http.StatusConflict, i18n.ErrKeyRegistrationClosed, nil)
	case errors.Is(err, service.ErrUnknownRoute):
		b.Error(http.StatusBadRequest, i18n.ErrKeyUnknownCacheRoute, nil)
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		b.Error(http.StatusServiceUnavailable, i18n.ErrKeyUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		b.Error(http.StatusGatewayTimeout, i18n.ErrKeyTimeout, err)
	default:
		b.Error(http.StatusInternalServerError, i18n.ErrKeyInternalError, err)
	}
}
