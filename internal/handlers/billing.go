package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/auth"
	"github.com/koe-app/koe/internal/middleware"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/pkg/response"
)

// Stripe sends events well under this size.
const maxWebhookBytes = 64 << 10

type BillingHandler struct {
	billing *services.BillingService
	usage   *services.UsageService
}

func NewBillingHandler(billing *services.BillingService, usage *services.UsageService) *BillingHandler {
	return &BillingHandler{billing: billing, usage: usage}
}

type redirectResponse struct {
	URL string `json:"url"`
}

// Checkout starts a Pro checkout
// POST /api/billing/checkout
func (h *BillingHandler) Checkout(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	url, err := h.billing.Checkout(c.Request.Context(), user.ID, user.Email)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, redirectResponse{URL: url})
}

// Portal opens the billing portal
// POST /api/billing/portal
func (h *BillingHandler) Portal(c *gin.Context) {
	url, err := h.billing.Portal(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, redirectResponse{URL: url})
}

// Usage returns plan limits and current counts
// GET /api/usage
func (h *BillingHandler) Usage(c *gin.Context) {
	usage, err := h.usage.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, usage)
}

// Webhook applies signed Stripe events. The raw body is needed for the
// signature check.
// POST /api/webhooks/stripe
func (h *BillingHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "could not read request body")
		return
	}

	if err := h.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
