package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"apparel-configurator/internal/catalog"
	"apparel-configurator/internal/shopify"
)

// HandleGetProductConfig handles GET /api/products/:id/config
func HandleGetProductConfig(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("id")
		if productID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
			return
		}

		cfg, err := svc.ProductConfig(c.Request.Context(), productID)
		if err != nil {
			if errors.Is(err, shopify.ErrInvalidProductID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
				return
			}
			logger.Error("Product configuration error", zap.String("product_id", productID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product configuration"})
			return
		}

		c.JSON(http.StatusOK, cfg)
	}
}

// HandleListProducts handles GET /api/admin/products
func HandleListProducts(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ListProducts(c.Request.Context())
		if err != nil {
			logger.Error("Products retrieval error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// HandleListOrders handles GET /api/admin/orders
func HandleListOrders(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListOrders(c.Request.Context())
		if err != nil {
			logger.Error("Orders retrieval error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// HandleSetupProduct handles POST /api/admin/products/:id/setup
func HandleSetupProduct(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("id")
		if productID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
			return
		}

		var req catalog.SetupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid setup request",
				"details": err.Error(),
			})
			return
		}

		res, err := svc.SetupProduct(c.Request.Context(), productID, req)
		if err != nil {
			switch {
			case errors.Is(err, catalog.ErrTemplateRequired):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Template ID is required"})
			case errors.Is(err, shopify.ErrInvalidProductID):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			default:
				logger.Error("Product setup error", zap.String("product_id", productID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to setup product"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Product " + productID + " configured successfully",
			"productId": productID,
			"created":   res.Created,
			"failed":    res.Failed,
			"images":    []string{},
		})
	}
}
