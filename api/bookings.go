package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/Domenick1991/gearbooking/internal/repository"
	"github.com/Domenick1991/gearbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	EquipmentID         string `json:"equipment_id" binding:"required"`
	StartDate           string `json:"start_date" binding:"required"`
	EndDate             string `json:"end_date" binding:"required"`
	PickupMethod        string `json:"pickup_method"`
	SpecialInstructions string `json:"special_instructions"`
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/transitions", h.transition)
	router.POST("/:id/cancel", h.cancel)
	router.GET("/:id/history", h.history)
}

func (h *BookingHandler) create(c *gin.Context) {
	renterID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	equipmentID, err := uuid.Parse(req.EquipmentID)
	if err != nil {
		badRequest(c, "equipment_id must be a UUID")
		return
	}
	start, err := domain.ParseDay(req.StartDate)
	if err != nil {
		writeError(c, err)
		return
	}
	end, err := domain.ParseDay(req.EndDate)
	if err != nil {
		writeError(c, err)
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), renterID, booking.CreateBookingInput{
		EquipmentID:         equipmentID,
		StartDate:           start,
		EndDate:             end,
		PickupMethod:        domain.PickupMethod(req.PickupMethod),
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) list(c *gin.Context) {
	opts, err := parseListOptions(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	opts = opts.Normalized()
	bookings, err := h.service.ListBookings(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "limit": opts.Limit, "offset": opts.Offset})
}

func (h *BookingHandler) transition(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	to, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	updated, err := h.service.TransitionBooking(c.Request.Context(), id, to, actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req cancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	result, err := h.service.CancelBooking(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) history(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	changes, err := h.service.GetBookingHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, changes)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseListOptions(c *gin.Context) (repository.ListOptions, error) {
	var opts repository.ListOptions

	for param, dst := range map[string]*uuid.UUID{
		"renter_id":    &opts.RenterID,
		"lender_id":    &opts.LenderID,
		"equipment_id": &opts.EquipmentID,
	} {
		if v := c.Query(param); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return opts, invalidParamError(param)
			}
			*dst = id
		}
	}

	if v := c.Query("status"); v != "" {
		status, err := domain.ParseBookingStatus(v)
		if err != nil {
			return opts, invalidParamError("status")
		}
		opts.Status = status
	}

	sortBy, err := repository.ParseSortField(c.Query("sort"))
	if err != nil {
		return opts, err
	}
	opts.SortBy = sortBy

	switch c.DefaultQuery("order", "desc") {
	case "asc":
	case "desc":
		opts.Descending = true
	default:
		return opts, invalidParamError("order")
	}

	if opts.Limit, err = intParam(c, "limit", 50); err != nil {
		return opts, err
	}
	if opts.Offset, err = intParam(c, "offset", 0); err != nil {
		return opts, err
	}
	return opts, nil
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, invalidParamError(name)
	}
	return n, nil
}

type invalidParamError string

func (e invalidParamError) Error() string {
	return "invalid query parameter " + strconv.Quote(string(e))
}
