package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
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

// reasonCodes maps application error codes to the machine-readable
// rejection names the UI layer keys its messages on.
var reasonCodes = map[apperrors.ErrorCode]string{
	apperrors.ErrPastDate:          "PastDate",
	apperrors.ErrClosedDay:         "ClosedDay",
	apperrors.ErrUnknownSlot:       "UnknownSlot",
	apperrors.ErrRunsPastClosing:   "RunsPastClosing",
	apperrors.ErrSlotConflict:      "SlotConflict",
	apperrors.ErrUnknownService:    "UnknownService",
	apperrors.ErrInvalidTransition: "InvalidTransition",
	apperrors.ErrUnauthorized:      "Unauthorized",
	apperrors.ErrNotFound:          "NotFound",
}

var statusCodes = map[apperrors.ErrorCode]int{
	apperrors.ErrPastDate:          http.StatusUnprocessableEntity,
	apperrors.ErrClosedDay:         http.StatusUnprocessableEntity,
	apperrors.ErrUnknownSlot:       http.StatusUnprocessableEntity,
	apperrors.ErrRunsPastClosing:   http.StatusUnprocessableEntity,
	apperrors.ErrSlotConflict:      http.StatusConflict,
	apperrors.ErrUnknownService:    http.StatusUnprocessableEntity,
	apperrors.ErrInvalidTransition: http.StatusUnprocessableEntity,
	apperrors.ErrUnauthorized:      http.StatusForbidden,
	apperrors.ErrNotFound:          http.StatusNotFound,
	apperrors.ErrBadRequest:        http.StatusBadRequest,
}

// RespondError renders any service error as a typed rejection. Codes
// without a mapping are internal faults and stay opaque to the caller.
func RespondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)

	status, ok := statusCodes[code]
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	resp := NewErrorResponse(err.Error())
	resp.Reason = reasonCodes[code]
	c.JSON(status, resp)
}
