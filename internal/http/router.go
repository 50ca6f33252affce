package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", handler.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/applications", handler.createApplication)
		protected.GET("/applications", handler.listApplications)
		protected.GET("/applications/:id", handler.getApplication)
		protected.PUT("/applications/:id", handler.updateApplication)
		protected.POST("/applications/:id/submit", handler.submitApplication)
		protected.POST("/applications/:id/actions", handler.actOnApplication)
		protected.POST("/applications/:id/resubmit", handler.resubmitApplication)
		protected.POST("/applications/:id/payment", handler.confirmPayment)
		protected.GET("/applications/:id/timeline", handler.getTimeline)
		protected.POST("/applications/:id/documents", handler.addDocument)
		protected.PUT("/documents/:id/verify", handler.verifyDocument)

		protected.POST("/inspections/:id/complete", handler.completeInspection)

		protected.POST("/fees/quote", handler.quoteFee)
		protected.POST("/compliance/category-check", handler.checkCategory)
	}

	return router
}
