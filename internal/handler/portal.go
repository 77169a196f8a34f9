package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kimora-storefront/internal/dto"
	"kimora-storefront/internal/service"
)

// genericAck is the single response body for every link request, known email
// or not. Do not add variants.
const genericAck = "If that email is in our system, you’ll receive a link shortly."

type PortalHandler struct {
	portalService service.PortalService
}

func NewPortalHandler(portalService service.PortalService) *PortalHandler {
	return &PortalHandler{
		portalService: portalService,
	}
}

func (h *PortalHandler) RequestLink(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PortalRequest
	if err := c.Bind(&req); err != nil {
		// Still the generic acknowledgment: a malformed body reveals as
		// little as an unknown email.
		return h.ack(c)
	}

	if err := h.portalService.RequestLink(ctx, req.Email); err != nil {
		return httpError(fmt.Errorf("request portal link: %w", err))
	}

	return h.ack(c)
}

func (h *PortalHandler) ack(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":      true,
		"message": genericAck,
	})
}

// Exchange accepts the token via POST body or GET query so the emailed link
// works directly in a browser.
func (h *PortalHandler) Exchange(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PortalExchangeRequest
	if c.Request().Method == http.MethodPost {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "token is required")
		}
	}
	tok := strings.TrimSpace(req.Token)
	if tok == "" {
		tok = strings.TrimSpace(c.QueryParam("token"))
	}
	if tok == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	url, err := h.portalService.Exchange(ctx, tok)
	if err != nil {
		return httpError(fmt.Errorf("portal exchange: %w", err))
	}

	return c.JSON(http.StatusOK, dto.PortalResponse{URL: url})
}
