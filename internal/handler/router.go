package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procurement-api/internal/middleware"
	"github.com/noah-isme/procurement-api/internal/models"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth          *AuthHandler
	Requests      *RequestHandler
	Notifications *NotificationHandler
	Catalogue     *CatalogueHandler
	Stock         *StockHandler
	Users         *UserHandler
	Settings      *SettingsHandler
	Subscribe     *SubscribeHandler
	Files         *FileHandler
	Metrics       *MetricsHandler
}

// Register mounts the versioned API under prefix and the mail/token endpoints under /api.
func Register(r *gin.Engine, prefix string, auth middleware.Authenticator, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	jwt := middleware.JWT(auth)
	admin := middleware.RequireRoles(models.RoleAdmin)
	superAdmin := middleware.RequireSuperAdmin()

	legacy := r.Group("/api")
	legacy.POST("/verifyToken", h.Auth.VerifyToken)
	legacy.POST("/sendEmail", jwt, admin, h.Notifications.SendEmail)
	legacy.POST("/sendNotifications", jwt, admin, h.Notifications.SendNotifications)
	legacy.POST("/updateEnv", jwt, superAdmin, h.Notifications.UpdateEnv)

	api := r.Group(prefix)
	api.Use(middleware.Timing())

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	api.GET("/files/:token", h.Files.Download)

	secured := api.Group("")
	secured.Use(jwt)

	secured.GET("/requests", h.Requests.List)
	secured.POST("/requests", h.Requests.Upload)
	secured.GET("/requests/:id", h.Requests.Get)
	secured.PUT("/requests/:id", h.Requests.Resubmit)
	secured.POST("/requests/:id/approve", admin, h.Requests.Approve)
	secured.POST("/requests/:id/reject", admin, h.Requests.Reject)
	secured.POST("/forward", admin, h.Requests.Forward)

	secured.GET("/vendors", h.Catalogue.ListVendors)
	secured.GET("/vendors/:id", h.Catalogue.GetVendor)
	secured.POST("/vendors", admin, h.Catalogue.CreateVendor)
	secured.PUT("/vendors/:id", admin, h.Catalogue.UpdateVendor)
	secured.GET("/vendors/:id/categories", h.Catalogue.ListCategories)
	secured.POST("/vendors/:id/categories", admin, h.Catalogue.CreateCategory)

	secured.GET("/food-items", h.Catalogue.ListFoodItems)
	secured.GET("/food-items/:id", h.Catalogue.GetFoodItem)
	secured.POST("/food-items", admin, h.Catalogue.CreateFoodItem)
	secured.POST("/food-items/import", admin, h.Catalogue.ImportMarketList)
	secured.PATCH("/food-items/:id", admin, h.Catalogue.UpdateFoodItem)
	secured.PUT("/food-items/:id/stock", admin, h.Stock.SetStock)
	secured.POST("/food-items/:id/stock/step", admin, h.Stock.Step)

	stock := secured.Group("/stock", admin)
	stock.POST("/bulk", h.Stock.Bulk)
	stock.POST("/bulk/sheet", h.Stock.BulkSheet)
	stock.GET("/export", h.Stock.Export)
	stock.POST("/delivery-notes/preview", h.Stock.PreviewNote)
	stock.POST("/delivery-notes", h.Stock.ApplyNote)

	users := secured.Group("/users", admin)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PATCH("/:id", h.Users.Update)

	secured.GET("/activities", admin, h.Settings.Activities)
	secured.GET("/settings/countdown", h.Settings.Countdown)
	secured.PUT("/settings/countdown", admin, h.Settings.SetCountdown)

	secured.GET("/subscribe", h.Subscribe.Stream)
	secured.GET("/metrics/snapshot", admin, h.Metrics.Snapshot)
}
