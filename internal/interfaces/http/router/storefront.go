package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Handlers are the storefront API handlers
type Handlers struct {
	System   *handler.SystemHandler
	CSRF     *handler.CSRFHandler
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Discount *handler.DiscountHandler
}

// Guards are the per-route middleware. Nil guards are skipped.
type Guards struct {
	// AuthRateLimit throttles credential endpoints harder than the global limit
	AuthRateLimit gin.HandlerFunc
	// CSRF protects the cookie-bound cart and checkout mutations
	CSRF gin.HandlerFunc
}

func chain(guards ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards))
	for _, g := range guards {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

func with(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(append(make([]gin.HandlerFunc, 0, len(guards)+1), guards...), h)
}

// StorefrontGroups builds the route groups of the storefront API
func StorefrontGroups(h Handlers, g Guards) []*DomainGroup {
	authLimited := chain(g.AuthRateLimit)
	csrf := chain(g.CSRF)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo).Describe("Build and uptime information")
	system.GET("/health", h.System.Health).Describe("Dependency health")

	security := NewDomainGroup("security", "")
	security.GET("/csrf-token", h.CSRF.GetToken).Describe("Issue an anti-forgery token")

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", with(authLimited, h.Auth.Register)...).Describe("Create a customer account")
	auth.POST("/login", with(authLimited, h.Auth.Login)...).Describe("Sign in with email and password")
	auth.POST("/logout", middleware.RequireAuth(), h.Auth.Logout).Describe("Revoke the access token")
	auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser).Describe("Current account")

	catalog := NewDomainGroup("catalog", "/products")
	catalog.GET("", h.Product.List).Describe("List products")
	catalog.GET("/:id", h.Product.GetByID).Describe("Get a product")
	catalog.GET("/slug/:slug", h.Product.GetBySlug).Describe("Get a product by slug")

	cart := NewDomainGroup("cart", "/cart")
	cart.GET("", h.Cart.Get).Describe("Current cart")
	cart.DELETE("", with(csrf, h.Cart.Clear)...).Describe("Empty the cart")
	cart.POST("/items", with(csrf, h.Cart.AddItem)...).Describe("Add a line")
	cart.PATCH("/items/:id", with(csrf, h.Cart.UpdateItem)...).Describe("Change a line quantity")
	cart.DELETE("/items/:id", with(csrf, h.Cart.RemoveItem)...).Describe("Remove a line")
	cart.POST("/discount", with(csrf, h.Cart.ApplyDiscount)...).Describe("Apply a discount code")
	cart.DELETE("/discount", with(csrf, h.Cart.RemoveDiscount)...).Describe("Remove the discount code")

	checkout := NewDomainGroup("checkout", "/checkout")
	checkout.POST("", with(csrf, h.Order.Checkout)...).Describe("Place an order from the cart")

	orders := NewDomainGroup("orders", "/orders")
	orders.GET("", h.Order.List).Describe("List orders")
	orders.GET("/:id", h.Order.GetByID).Describe("Get an order")
	orders.GET("/by-number/:orderNumber", h.Order.GetByNumber).Describe("Get an order by number")

	admin := NewDomainGroup("admin", "/admin").Use(middleware.RequireAdmin())
	admin.Group("products", "/products").
		POST("", h.Product.Create).Describe("Create a product").
		PATCH("/:id", h.Product.Update).Describe("Update a product").
		DELETE("/:id", h.Product.Delete).Describe("Delete a product").
		POST("/:id/image-upload", h.Product.RequestImageUpload).Describe("Presign an image upload").
		POST("/:id/image", h.Product.ConfirmImage).Describe("Attach an uploaded image")
	admin.Group("orders", "/orders").
		PATCH("/:id/status", h.Order.UpdateStatus).Describe("Change an order status").
		DELETE("/:id", h.Order.Delete).Describe("Delete a cancelled order")
	admin.Group("discounts", "/discounts").
		POST("", h.Discount.Create).Describe("Create a discount code").
		GET("", h.Discount.List).Describe("List discount codes").
		DELETE("/:id", h.Discount.Delete).Describe("Delete a discount code")

	return []*DomainGroup{system, security, auth, catalog, cart, checkout, orders, admin}
}
