package handler

import (
	"io"
	"net/http"

	"tourbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	paystackSignatureHeader = "x-paystack-signature"
	maxWebhookBody          = 1 << 20
)

type PaymentWebhookHandler struct {
	svc *service.PaymentService
	log *logrus.Logger
}

func NewPaymentWebhookHandler(svc *service.PaymentService, log *logrus.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{svc: svc, log: log}
}

// Paystack authenticates the raw body before anything is parsed. Only a bad
// signature is rejected; every authenticated delivery gets a 200 so the
// provider stops retrying.
func (h *PaymentWebhookHandler) Paystack(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "invalid body")
		return
	}
	res, err := h.svc.HandleWebhook(c.Request.Context(), body, c.GetHeader(paystackSignatureHeader), requestMeta(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "result": res})
}
