package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kimora-storefront/internal/dto"
	"kimora-storefront/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	items := req.Items
	if len(items) == 0 && req.Item != nil {
		items = []*dto.CartItem{req.Item}
	}

	url, err := h.checkoutService.CreateSession(ctx, req.Email, items)
	if err != nil {
		return httpError(fmt.Errorf("create session: %w", err))
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{URL: url})
}

func (h *CheckoutHandler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := strings.TrimSpace(c.QueryParam("session_id"))
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	summary, err := h.checkoutService.GetSession(ctx, sessionID)
	if err != nil {
		return httpError(fmt.Errorf("get session: %w", err))
	}

	return c.JSON(http.StatusOK, summary)
}
