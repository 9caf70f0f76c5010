package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/services-backend/internal/config"
	"github.com/ignatzorin/services-backend/internal/http/handlers"
	"github.com/ignatzorin/services-backend/internal/http/middleware"
	"github.com/ignatzorin/services-backend/internal/service"
)

// SetupRouter собирает маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	orderHandler *handlers.OrderHandler,
	offerHandler *handlers.OfferHandler,
	reviewHandler *handlers.ReviewHandler,
	catalogHandler *handlers.CatalogHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Аутентификация с защитой от перебора.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/external", authHandler.ExternalLogin)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты.
	api.GET("/ws", wsHandler.Handle)
	api.GET("/catalog/cities", catalogHandler.ListCities)
	api.GET("/catalog/categories", catalogHandler.ListCategories)
	api.GET("/users/:id", middleware.UUIDValidator("id"), profileHandler.GetUserProfile)
	api.GET("/users/:id/rating", middleware.UUIDValidator("id"), profileHandler.GetUserRating)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), profileHandler.ListUserReviews)

	// Защищённые маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.GetMe)
		protected.PUT("/profile", profileHandler.UpdateMe)
		protected.DELETE("/profile", profileHandler.DeleteMe)
		protected.POST("/profile/switch-role", profileHandler.SwitchRole)
		protected.PUT("/profile/categories", profileHandler.SetCategories)

		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders/available", orderHandler.ListAvailable)
		protected.GET("/orders/my", orderHandler.ListMy)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.PUT("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Update)
		protected.DELETE("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Delete)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)
		protected.POST("/orders/:id/complete", middleware.UUIDValidator("id"), orderHandler.Complete)
		protected.GET("/orders/:id/offers", middleware.UUIDValidator("id"), orderHandler.ListOffers)
		protected.POST("/orders/:id/offers", middleware.UUIDValidator("id"), offerHandler.Create)
		protected.POST("/orders/:id/review", middleware.UUIDValidator("id"), reviewHandler.Create)
		protected.GET("/orders/:id/review", middleware.UUIDValidator("id"), reviewHandler.GetForOrder)

		protected.GET("/offers/my", offerHandler.ListMy)
		protected.PUT("/offers/:id", middleware.UUIDValidator("id"), offerHandler.Update)
		protected.DELETE("/offers/:id", middleware.UUIDValidator("id"), offerHandler.Delete)
		protected.POST("/offers/:id/accept", middleware.UUIDValidator("id"), offerHandler.Accept)
		protected.POST("/offers/:id/reject", middleware.UUIDValidator("id"), offerHandler.Reject)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread", notificationHandler.CountUnread)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)
	}

	// Административные маршруты.
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.AdminOnly())
	{
		admin.PUT("/users/:id/role", middleware.UUIDValidator("id"), profileHandler.AdminSetRole)
		admin.PUT("/users/:id/admin", middleware.UUIDValidator("id"), profileHandler.AdminSetAdmin)
		admin.DELETE("/users/:id", middleware.UUIDValidator("id"), profileHandler.AdminDeleteUser)
		admin.POST("/catalog/cities", catalogHandler.CreateCity)
		admin.POST("/catalog/categories", catalogHandler.CreateCategory)
	}

	return r
}
