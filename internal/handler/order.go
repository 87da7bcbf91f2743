package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"order-intake/internal/dto"
	"order-intake/internal/logger"
	"order-intake/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
	logger       *slog.Logger
}

func NewOrderHandler(orderService service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

func (h *OrderHandler) SubmitOrder(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	ctx := c.Request().Context()

	var req dto.SubmitOrderRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return h.fail(c, fmt.Errorf("decode order payload: %w", err))
	}

	if err := h.orderService.SubmitOrder(ctx, &req); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, &dto.SubmitOrderResponse{Success: true})
}

func (h *OrderHandler) Preflight(c echo.Context) error {
	header := c.Response().Header()
	header.Set(echo.HeaderAccessControlAllowOrigin, "*")
	header.Set(echo.HeaderAccessControlAllowMethods, "POST, OPTIONS")
	header.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)
	return c.NoContent(http.StatusOK)
}

func (h *OrderHandler) fail(c echo.Context, err error) error {
	logger.Resolve(h.logger).Error("order submission failed",
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, &dto.SubmitOrderResponse{
		Success: false,
		Error:   err.Error(),
	})
}
