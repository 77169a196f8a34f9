package server

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"kimora-storefront/internal/handler"
	"kimora-storefront/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	portalHandler   *handler.PortalHandler
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(checkoutService service.CheckoutService, webhookService service.WebhookService, portalService service.PortalService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		webhookHandler:  handler.NewWebhookHandler(webhookService),
		portalHandler:   handler.NewPortalHandler(portalService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]bool{"ok": true})
	})

	// -------- checkout --------
	api.POST("/checkout", s.checkoutHandler.CreateSession)
	api.GET("/checkout/session", s.checkoutHandler.GetSession)

	// -------- stripe webhooks --------
	api.POST("/stripe/webhook", s.webhookHandler.HandleStripeWebhook)

	// -------- customer portal (magic link) --------
	api.POST("/customer-portal/request", s.portalHandler.RequestLink)
	api.POST("/customer-portal", s.portalHandler.Exchange)
	api.GET("/customer-portal", s.portalHandler.Exchange)
}

// Echo exposes the router for handler-level tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
