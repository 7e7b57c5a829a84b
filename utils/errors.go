package utils

import (
	"errors"
	"fmt"
)

// AppError is an error that knows its HTTP status and the i18n message
// id shown to the user
type AppError struct {
	Code      int                    // HTTP status code
	MessageID string                 // i18n message id
	Message   string                 // fallback message
	Err       error                  // underlying error
	Context   map[string]interface{} // extra fields for logs
}

// NewAppError creates a new AppError
func NewAppError(code int, messageID, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		MessageID: messageID,
		Message:   message,
		Err:       err,
		Context:   make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	e.Context[key] = value
	return e
}

// AsAppError reports whether err is (or wraps) an AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Common error constructors

func BadRequestError(messageID, message string, err error) *AppError {
	return NewAppError(400, messageID, message, err)
}

func UnauthorizedError(messageID, message string, err error) *AppError {
	return NewAppError(401, messageID, message, err)
}

func NotFoundError(messageID, message string, err error) *AppError {
	return NewAppError(404, messageID, message, err)
}

func ConflictError(messageID, message string, err error) *AppError {
	return NewAppError(409, messageID, message, err)
}

func InternalServerError(message string, err error) *AppError {
	return NewAppError(500, "error_internal", message, err)
}
