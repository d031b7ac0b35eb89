package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"apparel-configurator/internal/api/handlers"
	"apparel-configurator/internal/api/middleware"
	"apparel-configurator/internal/config"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Services are the dependencies behind the HTTP handlers.
type Services struct {
	Catalog handlers.CatalogService
	Designs handlers.DesignService
	Quotes  handlers.QuoteStore
	Limiter middleware.RateLimiter
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc Services, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Shopify Product Configurator App is running!")
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "OK",
				"timestamp": time.Now().UTC().Format(isoMillis),
			})
		})

		api.POST("/price/calculate",
			middleware.RateLimitMiddleware(svc.Limiter, "price", cfg.Pricing.RateLimit, cfg.Pricing.RateLimitWindow, logger),
			handlers.HandleCalculatePrice(svc.Catalog, svc.Quotes, logger))

		api.GET("/products/:id/config", handlers.HandleGetProductConfig(svc.Catalog, logger))

		api.GET("/designs", handlers.HandleListDesigns(svc.Designs, logger))
		api.GET("/designs/:id", handlers.HandleGetDesign(svc.Designs, logger))
		api.POST("/designs", handlers.HandleCreateDesign(svc.Designs, logger))
		api.PUT("/designs/:id", handlers.HandleUpdateDesign(svc.Designs, logger))

		admin := api.Group("/admin")
		{
			admin.GET("/designs/pending", handlers.HandleListPendingDesigns(svc.Designs, logger))
			admin.PUT("/designs/:id/approve", handlers.HandleApproveDesign(svc.Designs, logger))
			admin.PUT("/designs/:id/reject", handlers.HandleRejectDesign(svc.Designs, logger))

			admin.GET("/orders", handlers.HandleListOrders(svc.Catalog, logger))
			admin.GET("/products", handlers.HandleListProducts(svc.Catalog, logger))
			admin.GET("/templates", handlers.HandleListTemplates(svc.Designs, logger))
			admin.POST("/products/:id/setup", handlers.HandleSetupProduct(svc.Catalog, logger))

			admin.GET("/quotes", handlers.HandleListQuotes(svc.Quotes, logger))
			admin.GET("/quotes/stats", handlers.HandleQuoteStatistics(svc.Quotes, logger))
			admin.GET("/quotes/export", handlers.HandleExportQuotes(svc.Quotes, logger))
			admin.GET("/quotes/:id", handlers.HandleGetQuote(svc.Quotes, logger))
		}
	}

	return router
}
