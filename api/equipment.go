package api

import (
	"net/http"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/Domenick1991/gearbooking/internal/service/booking"
	"github.com/Domenick1991/gearbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

type EquipmentHandler struct {
	catalog  catalog.CatalogUseCase
	bookings booking.BookingUseCase
}

type availabilityResponse struct {
	EquipmentID string `json:"equipment_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Available   bool   `json:"available"`
}

func NewEquipmentHandler(catalog catalog.CatalogUseCase, bookings booking.BookingUseCase) *EquipmentHandler {
	return &EquipmentHandler{catalog: catalog, bookings: bookings}
}

func (h *EquipmentHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.GET("/:id/availability", h.availability)
}

func (h *EquipmentHandler) create(c *gin.Context) {
	lenderID, ok := currentUser(c)
	if !ok {
		return
	}
	var req catalog.RegisterEquipmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	eq, err := h.catalog.RegisterEquipment(c.Request.Context(), lenderID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, eq)
}

func (h *EquipmentHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	eq, err := h.catalog.GetEquipment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

func (h *EquipmentHandler) availability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	start, err := domain.ParseDay(c.Query("start"))
	if err != nil {
		writeError(c, err)
		return
	}
	end, err := domain.ParseDay(c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}

	available, err := h.bookings.CheckAvailability(c.Request.Context(), id, start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{
		EquipmentID: id.String(),
		StartDate:   start.Format(domain.DateLayout),
		EndDate:     end.Format(domain.DateLayout),
		Available:   available,
	})
}
