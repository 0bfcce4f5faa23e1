package handler

import (
	"net/http"
	"time"

	"tourbook/internal/repository"
	"tourbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	svc *service.BookingService
	log *logrus.Logger
}

func NewBookingHandler(svc *service.BookingService, log *logrus.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

type CreateBookingRequest struct {
	UserID      *uint      `json:"user_id"`
	TourID      *uint      `json:"tour_id"`
	RoomID      *uint      `json:"room_id"`
	FlightID    *uint      `json:"flight_id"`
	TotalPrice  *float64   `json:"total_price"`
	BookingDate *time.Time `json:"booking_date"`
}

type UpdateBookingRequest struct {
	TourID      *uint      `json:"tour_id"`
	RoomID      *uint      `json:"room_id"`
	FlightID    *uint      `json:"flight_id"`
	TotalPrice  *float64   `json:"total_price"`
	BookingDate *time.Time `json:"booking_date"`
	Status      *string    `json:"status"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := h.svc.CreateBooking(c.Request.Context(), actorFrom(c), service.CreateBookingInput{
		UserID:      req.UserID,
		TourID:      req.TourID,
		RoomID:      req.RoomID,
		FlightID:    req.FlightID,
		TotalPrice:  req.TotalPrice,
		BookingDate: req.BookingDate,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": v})
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.GetBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": v})
}

// List accepts status, type, user_id (staff), from, to, page and limit.
func (h *BookingHandler) List(c *gin.Context) {
	page, limit, ok := paging(c)
	if !ok {
		return
	}
	userID, ok := queryUint(c, "user_id")
	if !ok {
		return
	}
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	f := repository.BookingFilter{
		UserID: userID,
		Status: c.Query("status"),
		Type:   c.Query("type"),
		From:   from,
		To:     to,
		Page:   page,
		Limit:  limit,
	}
	list, total, err := h.svc.ListBookings(c.Request.Context(), actorFrom(c), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	listResponse(c, "bookings", list, total, page, limit)
}

func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := h.svc.UpdateBooking(c.Request.Context(), actorFrom(c), id, service.UpdateBookingInput{
		TourID:      req.TourID,
		RoomID:      req.RoomID,
		FlightID:    req.FlightID,
		TotalPrice:  req.TotalPrice,
		BookingDate: req.BookingDate,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": v})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.CancelBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": v})
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBooking(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
