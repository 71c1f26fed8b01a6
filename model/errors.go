package model

import (
	"fmt"
	"net/http"
)

// APIError is what the gateway reports to its caller.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Detail)
}

func NotFound(detail string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Detail: detail}
}

func Gone(detail string) *APIError {
	return &APIError{StatusCode: http.StatusGone, Detail: detail}
}

func BadGateway(detail string) *APIError {
	return &APIError{StatusCode: http.StatusBadGateway, Detail: detail}
}

func Internal(detail string) *APIError {
	return &APIError{StatusCode: http.StatusInternalServerError, Detail: detail}
}

func Unprocessable(detail string) *APIError {
	return &APIError{StatusCode: http.StatusUnprocessableEntity, Detail: detail}
}

func BadRequest(detail string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Detail: detail}
}
