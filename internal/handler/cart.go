package handler

import (
	"net/http"
	"strings"

	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/service"
	"cloudcart-storefront/internal/validation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderCartID carries the anonymous cart id. A missing or malformed id starts a new
// cart and the id is always echoed back.
const HeaderCartID = "X-Cart-Id"

type CartHandler struct {
	cartService     service.CartService
	checkoutService service.CheckoutService
}

func NewCartHandler(cartService service.CartService, checkoutService service.CheckoutService) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		checkoutService: checkoutService,
	}
}

func cartID(c echo.Context) string {
	id := strings.TrimSpace(c.Request().Header.Get(HeaderCartID))
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Response().Header().Set(HeaderCartID, id)
	return id
}

func itemKey(c echo.Context) string {
	key := c.Param("productId")
	if variantID := strings.TrimSpace(c.QueryParam("variantId")); variantID != "" {
		key += ":" + variantID
	}
	return key
}

func (h *CartHandler) GetCart(c echo.Context) error {
	cart, err := h.cartService.GetCart(c.Request().Context(), cartID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	id := cartID(c)

	var req dto.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return validation.Invalid("invalid cart item", "body", "must be a JSON object with productId and quantity")
	}

	cart, err := h.cartService.AddItem(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	id := cartID(c)

	var req dto.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return validation.Invalid("invalid cart item", "quantity", "must be an integer")
	}

	cart, err := h.cartService.UpdateItemQuantity(c.Request().Context(), id, itemKey(c), req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	cart, err := h.cartService.RemoveItem(c.Request().Context(), cartID(c), itemKey(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	id := cartID(c)
	if err := h.cartService.Clear(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.CreateOrderResponse{ID: id})
}

func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	id := cartID(c)

	body, err := readBody(c)
	if err != nil {
		return err
	}

	req, err := validation.ParseCheckout(body)
	if err != nil {
		return err
	}

	res, err := h.checkoutService.Checkout(ctx, id, req, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, res)
}
