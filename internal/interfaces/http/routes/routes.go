// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/handlers"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/middleware"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the route table needs
type Handlers struct {
	JWT         *auth.JWTManager
	AuthLimiter *middleware.IPRateLimiter

	Auth        *handlers.AuthHandler
	Profile     *handlers.UserProfileHandler
	Address     *handlers.UserAddressHandler
	UserAdmin   *handlers.UserAdminHandler
	Category    *handlers.CategoryHandler
	Product     *handlers.ProductHandler
	Cart        *handlers.CartHandler
	Order       *handlers.OrderHandler
	OrderStream *handlers.OrderStreamHandler
	Invoice     *handlers.InvoiceHandler
}

// SetupRoutes registers every API route under rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers) {
	SetupAuthRoutes(rg, h)
	SetupUserRoutes(rg, h)
	SetupCatalogRoutes(rg, h)
	SetupCartRoutes(rg, h)
	SetupOrderRoutes(rg, h)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.AuthLimiter.Middleware(), h.Auth.Register)
		authGroup.POST("/login", h.AuthLimiter.Middleware(), h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.JWT), middleware.RequireCapability(auth.CapCreateAdmin))
	{
		admin.POST("/create-admin", h.Auth.CreateAdmin)
	}
}

// SetupUserRoutes sets up profile, address and user management routes
func SetupUserRoutes(rg *gin.RouterGroup, h *Handlers) {
	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(h.JWT))
	{
		users.GET("/me", h.Profile.GetProfile)
		users.PATCH("/me", h.Profile.UpdateProfile)
		users.PATCH("/me/password", h.Profile.ChangePassword)

		users.GET("/me/address", h.Address.GetAddress)
		users.PATCH("/me/address", h.Address.UpsertAddress)
		users.DELETE("/me/address/:id", h.Address.DeleteAddress)

		manage := users.Group("")
		manage.Use(middleware.RequireCapability(auth.CapManageUsers))
		{
			manage.GET("", h.UserAdmin.GetUsers)
			manage.GET("/:id", h.UserAdmin.GetUser)
			manage.PATCH("/:id", h.UserAdmin.UpdateUser)
			manage.DELETE("/:id", h.UserAdmin.DeleteUser)
		}
	}
}

// SetupCatalogRoutes sets up category and product routes
func SetupCatalogRoutes(rg *gin.RouterGroup, h *Handlers) {
	staff := []gin.HandlerFunc{
		middleware.AuthMiddleware(h.JWT),
		middleware.RequireCapability(auth.CapManageCatalog),
	}
	guarded := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, staff...), handler)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", h.Category.GetCategories)
		categories.GET("/:id", h.Category.GetCategory)
		categories.GET("/:id/products", h.Category.GetCategoryProducts)

		categories.POST("", guarded(h.Category.CreateCategory)...)
		categories.PUT("/:id", guarded(h.Category.UpdateCategory)...)
		categories.DELETE("/:id", guarded(h.Category.DeleteCategory)...)
	}

	products := rg.Group("/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/:id", h.Product.GetProduct)
		products.GET("/category/:id/products", h.Category.GetCategoryProducts)

		products.POST("/upload", guarded(h.Product.CreateProduct)...)
		products.PATCH("/update/:id", guarded(h.Product.UpdateProduct)...)
		products.POST("/upload-multiple/:productId", guarded(h.Product.AddImages)...)
		products.DELETE("/:id", guarded(h.Product.DeleteProduct)...)
		products.DELETE("/image/:id", guarded(h.Product.RemoveImage)...)
	}
}

// SetupCartRoutes sets up cart routes. They work for anonymous sessions and
// authenticated users alike.
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers) {
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(h.JWT))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("", h.Cart.AddToCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.PATCH("/:productId", h.Cart.UpdateCartItem)
		cart.DELETE("/:productId", h.Cart.RemoveFromCart)
		cart.POST("/merge", middleware.AuthMiddleware(h.JWT), h.Cart.MergeCart)
	}
}

// SetupOrderRoutes sets up customer, guest and admin order routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *Handlers) {
	orders := rg.Group("/orders")

	guest := orders.Group("/guest")
	{
		guest.POST("", h.Order.CreateGuestOrder)
		guest.GET("/orders/:guestToken", h.Order.GetGuestOrders)
		guest.PATCH("/:id/cancel", h.Order.CancelGuestOrder)
	}

	// the stream authenticates itself so the token may come from the query
	orders.GET("/admin/stream", h.OrderStream.Stream)

	admin := orders.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.JWT), middleware.RequireCapability(auth.CapManageOrders))
	{
		admin.GET("/all", h.Order.GetAllOrders)
		admin.GET("/export", h.Order.ExportOrders)
		admin.PATCH("/:id/status", h.Order.UpdateOrderStatus)
		admin.DELETE("/:id", h.Order.DeleteOrder)
	}

	customer := orders.Group("")
	customer.Use(middleware.AuthMiddleware(h.JWT), middleware.RequireCapability(auth.CapShop))
	{
		customer.POST("", h.Order.CreateOrder)
		customer.GET("", h.Order.GetOrders)
		customer.GET("/:id", h.Order.GetOrder)
		customer.PATCH("/:id/cancel", h.Order.CancelOrder)
		customer.GET("/:id/invoice", h.Invoice.GenerateInvoice)
	}
}
