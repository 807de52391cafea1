package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/jobfit/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// domainStatus maps service error codes to a response status and public code.
var domainStatus = map[string]struct {
	status int
	code   string
}{
	"invalid_input":   {http.StatusBadRequest, "invalid_request"},
	"unauthorized":    {http.StatusUnauthorized, "unauthorized"},
	"forbidden":       {http.StatusForbidden, "forbidden"},
	"not_found":       {http.StatusNotFound, "not_found"},
	"conflict":        {http.StatusConflict, "conflict"},
	"notion_disabled": {http.StatusServiceUnavailable, "notion_disabled"},
	"queue_error":     {http.StatusServiceUnavailable, "queue_unavailable"},
	"embedding_error": {http.StatusBadGateway, "embedding_failed"},
	"llm_error":       {http.StatusBadGateway, "llm_failed"},
	"notion_error":    {http.StatusBadGateway, "notion_failed"},
}

// fromDomainError converts a service error. Unknown codes become a 500 with fallback.
func fromDomainError(err error, fallback string) *HTTPError {
	if mapped, ok := domainStatus[apperrors.CodeOf(err)]; ok {
		return NewHTTPError(mapped.status, mapped.code, errMessage(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, fallback, errMessage(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
