package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

const retryAfterSeconds = "1"

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{domain.ErrEquipmentNotFound, http.StatusNotFound, "equipment_not_found"},
	{domain.ErrEquipmentUnavailable, http.StatusConflict, "equipment_unavailable"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrSelfBookingForbidden, http.StatusForbidden, "self_booking_forbidden"},
	{domain.ErrInvalidDuration, http.StatusUnprocessableEntity, "invalid_duration"},
	{domain.ErrInvalidDateRange, http.StatusBadRequest, "invalid_date_range"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrPoolExhausted, http.StatusServiceUnavailable, "pool_exhausted"},
	{domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	{domain.ErrTransactionAborted, http.StatusServiceUnavailable, "transaction_aborted"},
}

// writeError maps a service error to its HTTP status. Unknown errors are
// logged and reported as 500 without details.
func writeError(c *gin.Context, err error) {
	for _, e := range errorStatuses {
		if !errors.Is(err, e.err) {
			continue
		}
		if e.status == http.StatusServiceUnavailable {
			c.Header("Retry-After", retryAfterSeconds)
		}
		c.JSON(e.status, errorResponse{Error: err.Error(), Code: e.code})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "invalid_input"})
}
