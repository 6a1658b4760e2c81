package router

import (
	"github.com/gin-gonic/gin"
	"github.com/goatmart/goatmart-backend/config"
	"github.com/goatmart/goatmart-backend/internal/app/controller"
	"github.com/goatmart/goatmart-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	productController   *controller.ProductController
	cartController      *controller.CartController
	orderController     *controller.OrderController
	affiliateController *controller.AffiliateController
	uploadController    *controller.UploadController
	authMiddleware      *middleware.AuthMiddleware
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	affiliateController *controller.AffiliateController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		productController:   productController,
		cartController:      cartController,
		orderController:     orderController,
		affiliateController: affiliateController,
		uploadController:    uploadController,
		authMiddleware:      authMiddleware,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "GoatMart API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateProfile)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/featured", r.productController.GetFeaturedProducts)
			products.GET("/:slug", r.productController.GetProduct)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", r.productController.ListCategories)
			categories.GET("/:slug", r.productController.GetCategory)
		}

		// Cart works for both guests (X-Cart-Session header) and
		// authenticated users, so auth is optional here.
		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items/:id", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:id", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.POST("/checkout", r.orderController.Checkout)
			orders.GET("", r.orderController.ListMyOrders)
			orders.GET("/:id", r.orderController.GetOrder)
		}

		affiliate := v1.Group("/affiliate")
		{
			affiliate.GET("/codes/:code", r.affiliateController.ResolveCode)
			affiliate.POST("/join",
				r.authMiddleware.Authenticate(),
				r.affiliateController.JoinProgram,
			)
			affiliate.GET("/dashboard",
				r.authMiddleware.Authenticate(),
				r.affiliateController.GetDashboard,
			)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate())
		admin.Use(r.authMiddleware.RequireRole("admin"))
		{
			admin.POST("/products", r.productController.CreateProduct)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeleteProduct)

			admin.GET("/orders", r.orderController.ListOrders)
			admin.PUT("/orders/:id/status", r.orderController.UpdateOrderStatus)
			admin.PUT("/orders/:id/payment", r.orderController.UpdatePaymentStatus)

			admin.PUT("/referrals/:id/approve", r.affiliateController.ApproveReferral)
			admin.PUT("/referrals/:id/paid", r.affiliateController.MarkReferralPaid)

			admin.POST("/uploads/product-image", r.uploadController.PresignProductImage)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Cart-Session")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Cart-Session")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
