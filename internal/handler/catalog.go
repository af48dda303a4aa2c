package handler

import (
	"net/http"
	"strings"

	"cloudcart-storefront/internal/catalog"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogs *catalog.Facade
}

func NewCatalogHandler(catalogs *catalog.Facade) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs}
}

func (h *CatalogHandler) backend(c echo.Context) (catalog.Catalog, error) {
	backend, _, err := h.catalogs.For(c.QueryParam("source"))
	return backend, err
}

func catalogQuery(c echo.Context) (catalog.Query, error) {
	page, perPage, err := pageParams(c)
	if err != nil {
		return catalog.Query{}, err
	}
	return catalog.Query{
		Page:    page,
		PerPage: perPage,
		Search:  strings.TrimSpace(c.QueryParam("q")),
	}, nil
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	backend, err := h.backend(c)
	if err != nil {
		return err
	}
	q, err := catalogQuery(c)
	if err != nil {
		return err
	}

	page, err := backend.ListCategories(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return respondPage(c, page.Items, page.Meta)
}

func (h *CatalogHandler) GetCategory(c echo.Context) error {
	backend, err := h.backend(c)
	if err != nil {
		return err
	}

	category, err := backend.GetCategory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, category)
}

// ListProducts serves both /products and /categories/:id/products.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	backend, err := h.backend(c)
	if err != nil {
		return err
	}
	q, err := catalogQuery(c)
	if err != nil {
		return err
	}

	page, err := backend.ListProducts(c.Request().Context(), c.Param("id"), q)
	if err != nil {
		return err
	}
	return respondPage(c, page.Items, page.Meta)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	backend, err := h.backend(c)
	if err != nil {
		return err
	}

	product, err := backend.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, product)
}

func (h *CatalogHandler) ListVariants(c echo.Context) error {
	backend, err := h.backend(c)
	if err != nil {
		return err
	}

	variants, err := backend.ListVariants(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, variants)
}
