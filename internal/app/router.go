package app

import (
	"sky266_backend/docs"
	"sky266_backend/internal/config"
	"sky266_backend/internal/middleware"
	"sky266_backend/internal/model"
	"sky266_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerManagerRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		// the sign-up page disables the manager option once the cap is hit
		public.GET("/managers/count", c.roster.GetManagerCount)
	}
}

func (a *App) registerUserRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/logout", c.auth.Logout)
	group.GET("/profile", c.auth.GetProfile)
	group.PUT("/profile", c.auth.UpdateProfile)
	group.POST("/language", c.auth.ToggleLanguage)

	group.GET("/progress", c.progress.GetProgress)
	group.PATCH("/progress", c.progress.UpdateProgress)
	group.POST("/progress/videos", c.progress.CompleteVideo)
	group.POST("/progress/quizzes", c.progress.CompleteQuiz)
	group.POST("/progress/activities", c.progress.AddActivity)
	group.GET("/progress/stream", c.progress.StreamProgress)

	group.GET("/certificates", c.certificate.ListCertificates)
	group.GET("/certificates/:id/download", c.certificate.DownloadCertificate)
	group.POST("/certificates/:id/export", c.certificate.ExportCertificate)

	group.GET("/alerts", c.admin.GetSecurityAlerts)
}

func (a *App) registerManagerRoutes(group *gin.RouterGroup, c *controllers) {
	manager := group.Group("")
	manager.Use(middleware.RoleMiddleware(model.Manager))
	{
		manager.GET("/roster", c.roster.GetRoster)

		manager.POST("/alerts", c.admin.PublishSecurityAlert)

		manager.GET("/admin/users", c.admin.GetAllUsers)
		manager.DELETE("/admin/users", c.admin.DeleteAllUsers)
		manager.DELETE("/admin/users/:id", c.admin.DeleteUser)
	}
}
