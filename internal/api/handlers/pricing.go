package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"apparel-configurator/internal/pricing"
	"apparel-configurator/internal/storage"
)

// HandleCalculatePrice handles POST /api/price/calculate
func HandleCalculatePrice(catalog CatalogService, quotes QuoteStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": pricing.ReasonMalformedBody})
			return
		}

		req, err := pricing.DecodeRequest(body)
		if err == nil {
			err = req.Validate()
		}
		var verr *pricing.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}

		// Without an override the defaults apply.
		cfg, err := catalog.PricingConfig(c.Request.Context(), req.ProductID)
		if err != nil {
			logger.Warn("Pricing config lookup failed, using defaults",
				zap.String("product_id", req.ProductID),
				zap.Error(err))
			cfg = nil
		}

		result, err := pricing.CalculatePrice(req, cfg)
		if err != nil {
			logger.Error("Pricing calculation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate pricing"})
			return
		}
		if !finite(result.EachItem, result.SetupFee, result.Total) {
			logger.Error("Pricing result out of range",
				zap.Float64("quantity", *req.Quantity),
				zap.String("product_id", req.ProductID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate pricing"})
			return
		}

		if quotes != nil {
			q := storage.NewQuote(req, result, len(cfg) > 0, time.Now())
			if err := quotes.SaveQuote(c.Request.Context(), q); err != nil {
				logger.Error("Failed to record quote", zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, result)
	}
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
