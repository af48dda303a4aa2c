package handler

import (
	"net/http"

	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/service"
	"cloudcart-storefront/internal/validation"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
	syncService  service.SyncService
}

func NewOrderHandler(orderService service.OrderService, syncService service.SyncService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		syncService:  syncService,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	payload, err := validation.ParseCreateOrder(body)
	if err != nil {
		return err
	}

	res, err := h.orderService.CreateOrder(ctx, payload, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return err
	}

	if res.Replayed {
		c.Response().Header().Set("Idempotent-Replayed", "true")
	}
	return respond(c, http.StatusCreated, dto.CreateOrderResponse{ID: res.ID})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	page, perPage, err := pageParams(c)
	if err != nil {
		return err
	}

	list, err := h.orderService.ListOrders(ctx, dto.OrderFilter{
		Status:  c.QueryParam("status"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return err
	}

	return respondPage(c, list.Orders, catalog.NewPageMeta(list.Page, list.PerPage, list.Total))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orderService.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	payload, err := validation.ParseUpdateOrder(body)
	if err != nil {
		return err
	}

	order, err := h.orderService.UpdateOrder(ctx, c.Param("id"), payload)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	orderID := c.Param("id")
	if err := h.orderService.DeleteOrder(c.Request().Context(), orderID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.CreateOrderResponse{ID: orderID})
}

func (h *OrderHandler) SyncOrders(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	req, err := validation.ParseSyncRequest(body)
	if err != nil {
		return err
	}

	result, err := h.syncService.SyncOrders(ctx, *req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}
