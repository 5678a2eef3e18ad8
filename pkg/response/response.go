package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const internalMessage = "internal server error"

// ErrorBody is the JSON shape of every error response. Fields is set for
// validation failures only.
type ErrorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// AppError represents an error with an HTTP status and a client-safe message.
type AppError struct {
	HTTPStatus int
	Message    string
	Fields     map[string][]string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg}
}

// NewValidation is a 422 carrying field-keyed messages.
func NewValidation(fields map[string][]string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnprocessableEntity, Message: "validation failed", Fields: fields}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Message: msg}
}

func NewServiceUnavailable(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusServiceUnavailable, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: msg}
}

// Success sends a 200 OK response with the entity as body.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 Created response with the entity as body.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message sends a 200 OK {"message": msg}.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Error maps err onto a status and writes it. Errors that map to 500 are
// attached to the gin context for the request log and replaced by a
// generic message.
func Error(c *gin.Context, err error) {
	status, body := Describe(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

// Describe returns the status and body Error would write for err. Only
// *AppError carries a client-visible message; anything else is a 500.
func Describe(err error) (int, ErrorBody) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.HTTPStatus >= http.StatusInternalServerError && appErr.HTTPStatus != http.StatusServiceUnavailable {
			msg = internalMessage
		}
		return appErr.HTTPStatus, ErrorBody{Error: msg, Fields: appErr.Fields}
	}
	return http.StatusInternalServerError, ErrorBody{Error: internalMessage}
}

func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Error: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody{Error: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorBody{Error: msg})
}

func TooManyRequests(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorBody{Error: msg})
}

func ServerError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: internalMessage})
}
