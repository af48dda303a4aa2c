package handler

import (
	"net/http"

	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/service"
	"cloudcart-storefront/internal/validation"

	"github.com/labstack/echo/v4"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) UpdateStock(c echo.Context) error {
	var req dto.StockUpdateRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return validation.Invalid("invalid stock update", "quantity", "must be a non-negative integer")
	}

	variantID := c.Param("id")
	err := h.inventoryService.UpdateVariantStock(c.Request().Context(), c.QueryParam("source"), variantID, *req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]interface{}{"id": variantID, "quantity": *req.Quantity})
}

func (h *InventoryHandler) SetImage(c echo.Context) error {
	var req dto.ImageOverrideRequest
	if err := c.Bind(&req); err != nil {
		return validation.Invalid("invalid image override", "imageUrl", "must be a string")
	}

	productID := c.Param("id")
	if err := h.inventoryService.SetImageOverride(c.Request().Context(), productID, req.ImageURL); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"id": productID, "imageUrl": req.ImageURL})
}

func (h *InventoryHandler) ClearImage(c echo.Context) error {
	productID := c.Param("id")
	if err := h.inventoryService.ClearImageOverride(c.Request().Context(), productID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"id": productID})
}
