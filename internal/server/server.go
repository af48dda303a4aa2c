package server

import (
	"context"
	"log/slog"
	"net/http"

	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/handler"
	authmw "cloudcart-storefront/internal/middleware"
	"cloudcart-storefront/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo             *echo.Echo
	auth             config.Auth
	orderHandler     *handler.OrderHandler
	catalogHandler   *handler.CatalogHandler
	cartHandler      *handler.CartHandler
	inventoryHandler *handler.InventoryHandler
}

func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	catalogs *catalog.Facade,
	orderService service.OrderService,
	syncService service.SyncService,
	cartService service.CartService,
	checkoutService service.CheckoutService,
	inventoryService service.InventoryService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		ExposeHeaders: []string{handler.HeaderCartID, echo.HeaderXRequestID},
	}))

	s := &Server{
		echo:             e,
		auth:             cfg.Auth,
		orderHandler:     handler.NewOrderHandler(orderService, syncService),
		catalogHandler:   handler.NewCatalogHandler(catalogs),
		cartHandler:      handler.NewCartHandler(cartService, checkoutService),
		inventoryHandler: handler.NewInventoryHandler(inventoryService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": map[string]string{"status": "ok"}})
	})

	// -------- storefront catalog --------
	catalogGroup := api.Group("/catalog")
	catalogGroup.GET("/categories", s.catalogHandler.ListCategories)
	catalogGroup.GET("/categories/:id", s.catalogHandler.GetCategory)
	catalogGroup.GET("/categories/:id/products", s.catalogHandler.ListProducts)
	catalogGroup.GET("/products", s.catalogHandler.ListProducts)
	catalogGroup.GET("/products/:id", s.catalogHandler.GetProduct)
	catalogGroup.GET("/products/:id/variants", s.catalogHandler.ListVariants)

	// -------- cart / checkout --------
	api.GET("/cart", s.cartHandler.GetCart)
	api.DELETE("/cart", s.cartHandler.ClearCart)
	api.POST("/cart/items", s.cartHandler.AddItem)
	api.PATCH("/cart/items/:productId", s.cartHandler.UpdateItem)
	api.DELETE("/cart/items/:productId", s.cartHandler.RemoveItem)
	api.POST("/checkout", s.cartHandler.Checkout)

	// -------- admin --------
	admin := api.Group("/admin", authmw.AdminAuth(s.auth))
	admin.POST("/orders", s.orderHandler.CreateOrder)
	admin.GET("/orders", s.orderHandler.ListOrders)
	admin.POST("/orders/sync", s.orderHandler.SyncOrders)
	admin.GET("/orders/:id", s.orderHandler.GetOrder)
	admin.PATCH("/orders/:id", s.orderHandler.UpdateOrder)
	admin.DELETE("/orders/:id", s.orderHandler.DeleteOrder)
	admin.PATCH("/variants/:id/stock", s.inventoryHandler.UpdateStock)
	admin.PUT("/products/:id/image", s.inventoryHandler.SetImage)
	admin.DELETE("/products/:id/image", s.inventoryHandler.ClearImage)
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
