package handler

import (
	"net/http"

	"tourbook/internal/repository"
	"tourbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	svc *service.PaymentService
	log *logrus.Logger
}

func NewPaymentHandler(svc *service.PaymentService, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

type CreatePaymentRequest struct {
	BookingID     uint   `json:"booking_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RefundRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// Create starts a provider transaction for a booking and returns the
// checkout URL.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.svc.CreatePayment(c.Request.Context(), actorFrom(c), req.BookingID, req.PaymentMethod)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment initialized",
		"data":    res,
	})
}

// Callback is hit by the provider redirect. A failed payment is still a 200
// with success=false.
func (h *PaymentHandler) Callback(c *gin.Context) {
	ref := c.Query("reference")
	if ref == "" {
		ref = c.Query("trxref")
	}
	res, err := h.svc.HandleCallback(c.Request.Context(), ref)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetPayment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (h *PaymentHandler) List(c *gin.Context) {
	page, limit, ok := paging(c)
	if !ok {
		return
	}
	bookingID, ok := queryUint(c, "booking_id")
	if !ok {
		return
	}
	userID, ok := queryUint(c, "user_id")
	if !ok {
		return
	}
	f := repository.PaymentFilter{
		UserID:    userID,
		BookingID: bookingID,
		Status:    c.Query("status"),
		Method:    c.Query("payment_method"),
		Page:      page,
		Limit:     limit,
	}
	list, total, err := h.svc.ListPayments(c.Request.Context(), actorFrom(c), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	listResponse(c, "payments", list, total, page, limit)
}

func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.svc.UpdatePaymentStatus(c.Request.Context(), actorFrom(c), id, req.Status, requestMeta(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RefundRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	p, err := h.svc.RefundPayment(c.Request.Context(), actorFrom(c), id, req.Reason, requestMeta(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePayment(c.Request.Context(), actorFrom(c), id, requestMeta(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
