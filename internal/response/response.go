package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/model"
)

// Response is the success envelope.
type Response struct {
	Message    string            `json:"message"`
	Data       interface{}       `json:"data"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode"`
	Time       string    `json:"time"`
	Identifier string    `json:"identifier,omitempty"`
	Error      ErrorBody `json:"error"`
}

// ErrorBody identifies the failure for clients.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends a successful JSON response with the given status code and data.
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{Message: message, Data: data})
}

// SuccessWithPagination sends a successful response with pagination metadata.
func SuccessWithPagination(c *gin.Context, statusCode int, message string, data interface{}, pagination model.Pagination) {
	c.JSON(statusCode, Response{Message: message, Data: data, Pagination: &pagination})
}

// Error renders err. Classified errors keep their message; anything else,
// and every Internal error, is reported with a generic message and the
// cause is attached to the gin context for the access log.
func Error(c *gin.Context, err error) {
	ae, ok := apperror.As(err)
	if !ok {
		ae = apperror.Internal(err, "%s", err.Error())
	}

	status := ae.Kind.HTTPStatus()
	code := CodeFor(ae.Kind)
	message := ae.Message
	if ae.Kind == apperror.KindInternal {
		_ = c.Error(err)
		message = GetMessage(ErrInternal)
	}

	c.JSON(status, build(c, status, message, ErrorBody{Code: code, Message: message, Field: ae.Field}))
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	msg := GetMessage(code)
	c.JSON(statusCode, build(c, statusCode, msg, ErrorBody{Code: code, Message: msg}))
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	msg := GetMessage(code)
	c.JSON(statusCode, build(c, statusCode, msg, ErrorBody{Code: code, Message: msg, Fields: fields}))
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	msg := GetMessage(code)
	c.AbortWithStatusJSON(statusCode, build(c, statusCode, msg, ErrorBody{Code: code, Message: msg}))
}

// NotFoundRoute answers unknown routes with the error envelope.
func NotFoundRoute(c *gin.Context) {
	Fail(c, http.StatusNotFound, ErrNotFound)
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func build(c *gin.Context, status int, message string, body ErrorBody) ErrorResponse {
	return ErrorResponse{
		Success:    false,
		Message:    message,
		StatusCode: status,
		Time:       time.Now().UTC().Format(time.RFC3339),
		Identifier: c.GetString(ContextKeyRequestID),
		Error:      body,
	}
}
