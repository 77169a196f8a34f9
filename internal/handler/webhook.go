package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"kimora-storefront/internal/apperr"
	"kimora-storefront/internal/service"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleStripeWebhook hands the untouched raw body to the reconciler.
// Signature verification needs the exact bytes Stripe signed; binding the
// body into a struct first would re-serialize and break it.
func (h *WebhookHandler) HandleStripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing raw body for webhook verification")
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")
	if sigHeader == "" {
		return c.String(http.StatusBadRequest, "missing Stripe-Signature header")
	}

	if err := h.webhookService.HandleEvent(ctx, body, sigHeader); err != nil {
		log.Printf("stripe webhook error: %v", err)
		if !apperr.Retryable(err) {
			// Bad signature: terminal for this delivery attempt.
			return c.String(http.StatusBadRequest, "webhook verification failed")
		}
		// Anything else must come back: non-2xx makes Stripe redeliver.
		return c.String(http.StatusInternalServerError, "webhook processing failed, retry")
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
