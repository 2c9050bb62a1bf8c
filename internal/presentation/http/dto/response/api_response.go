package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/sales-api/pkg/apperror"
	"github.com/sangkips/sales-api/pkg/pagination"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains metadata about the response
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func newMeta(c *gin.Context) *Meta {
	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// Success sends a success response
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// SuccessWithPagination sends a success response with pagination
func SuccessWithPagination[T any](c *gin.Context, statusCode int, message string, result *pagination.PaginatedResult[T]) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    result,
		Meta:    newMeta(c),
	})
}

// Error sends an error response. Causes are never written to the client.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	message := appErr.Message
	if appErr.Kind == apperror.KindInternal {
		_ = c.Error(err)
		message = apperror.ErrInternalServer.Message
	}
	c.JSON(appErr.Code, APIResponse{
		Success: false,
		Message: message,
		Errors:  appErr.Errors,
		Meta:    newMeta(c),
	})
}

// Created sends a 201 Created response
func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

// OK sends a 200 OK response
func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}
