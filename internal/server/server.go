package server

import (
	"context"
	"log/slog"
	"net/http"
	"order-intake/internal/config"
	"order-intake/internal/dto"
	"order-intake/internal/handler"
	appmw "order-intake/internal/middleware"
	"order-intake/internal/service"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Server struct {
	echo         *echo.Echo
	httpCfg      config.HTTPServer
	orderHandler *handler.OrderHandler
}

func NewServer(orderService service.OrderService, httpCfg *config.HTTPServer, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(logger))
	e.Use(appmw.Metrics())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		// origin-less preflights fall through to the explicit OPTIONS route
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get(echo.HeaderOrigin) == ""
		},
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	s := &Server{
		echo:         e,
		httpCfg:      *httpCfg,
		orderHandler: handler.NewOrderHandler(orderService, logger),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	var orderMiddleware []echo.MiddlewareFunc
	if s.httpCfg.RateLimit > 0 {
		orderMiddleware = append(orderMiddleware, s.rateLimiter())
	}
	api.POST("/orders", s.orderHandler.SubmitOrder, orderMiddleware...)
	api.OPTIONS("/orders", s.orderHandler.Preflight)
}

func (s *Server) rateLimiter() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(s.httpCfg.RateLimit),
			Burst:     s.httpCfg.RateBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
			return c.JSON(http.StatusTooManyRequests, &dto.SubmitOrderResponse{
				Success: false,
				Error:   "too many requests",
			})
		},
	})
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
