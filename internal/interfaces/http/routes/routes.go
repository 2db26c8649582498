// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/food-delivery-backend/internal/config"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/handlers"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/middleware"
	"github.com/your-org/food-delivery-backend/internal/pkg/auth"
)

// Handlers bundles every API handler
type Handlers struct {
	Restaurants *handlers.RestaurantHandler
	Cart        *handlers.CartHandler
	Addresses   *handlers.AddressHandler
	Checkout    *handlers.CheckoutHandler
	Orders      *handlers.OrderHandler
	AdminOrders *handlers.AdminOrderHandler
	Favorites   *handlers.FavoriteHandler
	Reviews     *handlers.ReviewHandler
}

// SetupRoutes registers all API v1 routes
func SetupRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	jwtManager := auth.NewJWTManager(cfg)

	SetupRestaurantRoutes(rg, h.Restaurants, h.Reviews)
	SetupCartRoutes(rg, h.Cart, cfg, jwtManager)
	SetupAddressRoutes(rg, h.Addresses, jwtManager)
	SetupCheckoutRoutes(rg, h.Checkout, cfg, jwtManager)
	SetupOrderRoutes(rg, h.Orders, h.Reviews, jwtManager)
	SetupFavoriteRoutes(rg, h.Favorites, jwtManager)
	SetupAdminRoutes(rg, h.AdminOrders, jwtManager)
}

// SetupRestaurantRoutes sets up restaurant browsing routes
func SetupRestaurantRoutes(rg *gin.RouterGroup, h *handlers.RestaurantHandler, reviews *handlers.ReviewHandler) {
	restaurants := rg.Group("/restaurants")
	{
		restaurants.GET("", h.ListRestaurants)
		restaurants.GET("/:id", h.GetRestaurant)
		restaurants.GET("/:id/reviews", reviews.GetRestaurantReviews)
	}
}

// SetupCartRoutes sets up session cart routes. Carts belong to the session,
// so no login is required.
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler, cfg *config.Config, jwtManager *auth.JWTManager) {
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(jwtManager))
	cart.Use(middleware.CartSession(cfg.Cart.SessionTTL))
	{
		cart.GET("", h.GetCart)
		cart.GET("/count", h.GetCartCount)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items", h.AddToCart)
		cart.PUT("/items/:id", h.UpdateCartItem)
		cart.DELETE("/items/:id", h.RemoveFromCart)
		cart.POST("/promo", h.ApplyPromo)
		cart.DELETE("/promo", h.RemovePromo)
	}
}

// SetupAddressRoutes sets up saved address routes
func SetupAddressRoutes(rg *gin.RouterGroup, h *handlers.AddressHandler, jwtManager *auth.JWTManager) {
	addresses := rg.Group("/addresses")
	addresses.Use(middleware.AuthMiddleware(jwtManager))
	{
		addresses.GET("", h.GetAddresses)
		addresses.POST("", h.CreateAddress)
		addresses.PUT("/:id/default", h.SetDefaultAddress)
		addresses.DELETE("/:id", h.DeleteAddress)
	}
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h *handlers.CheckoutHandler, cfg *config.Config, jwtManager *auth.JWTManager) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(jwtManager))
	checkout.Use(middleware.CartSession(cfg.Cart.SessionTTL))
	{
		checkout.POST("", h.PlaceOrder)
	}
}

// SetupOrderRoutes sets up customer order routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler, reviews *handlers.ReviewHandler, jwtManager *auth.JWTManager) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(jwtManager))
	{
		orders.GET("", h.GetOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/:id/ws", h.TrackOrder)
		orders.GET("/:id/receipt", h.DownloadReceipt)
		orders.GET("/:id/review", reviews.GetOrderReview)
		orders.POST("/:id/review", reviews.CreateReview)
	}
}

// SetupFavoriteRoutes sets up favorite restaurant routes
func SetupFavoriteRoutes(rg *gin.RouterGroup, h *handlers.FavoriteHandler, jwtManager *auth.JWTManager) {
	favorites := rg.Group("/favorites")
	favorites.Use(middleware.AuthMiddleware(jwtManager))
	{
		favorites.GET("", h.GetFavorites)
		favorites.POST("/:restaurant_id", h.AddFavorite)
		favorites.DELETE("/:restaurant_id", h.RemoveFavorite)
	}
}

// SetupAdminRoutes sets up operator routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *handlers.AdminOrderHandler, jwtManager *auth.JWTManager) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.PUT("/orders/:id/cancel", h.CancelOrder)
		admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
		admin.POST("/orders/:id/advance", h.AdvanceOrder)
	}
}
