package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opdclinic/booking-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// StatusFor maps application error codes to HTTP statuses. Policy
// violations are the patient's to correct, conflicts mean re-query
// availability, everything unexpected is a server error.
func StatusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrBadRequest, errors.ErrPolicyViolation:
		return http.StatusBadRequest
	case errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error response. Internal failures hide
// their cause behind a generic message.
func Error(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, NewErrorResponse(msg))
}
