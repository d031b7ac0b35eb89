package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"apparel-configurator/internal/storage"
)

const (
	defaultQuoteLimit = 50
	maxQuoteLimit     = 500

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// HandleListQuotes handles GET /api/admin/quotes
func HandleListQuotes(store QuoteStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultQuoteLimit
		if l := c.Query("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
				return
			}
			limit = min(n, maxQuoteLimit)
		}

		quotes, err := store.ListQuotes(c.Request.Context(), limit)
		if err != nil {
			logger.Error("Failed to list quotes", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotes"})
			return
		}
		c.JSON(http.StatusOK, quotes)
	}
}

// HandleGetQuote handles GET /api/admin/quotes/:id
func HandleGetQuote(store QuoteStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		q, err := store.GetQuote(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrQuoteNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
				return
			}
			logger.Error("Failed to get quote", zap.Stringer("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quote"})
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

// HandleQuoteStatistics handles GET /api/admin/quotes/stats
func HandleQuoteStatistics(store QuoteStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.GetQuoteStatistics(c.Request.Context())
		if err != nil {
			logger.Error("Failed to get quote statistics", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quote statistics"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// HandleExportQuotes handles GET /api/admin/quotes/export
func HandleExportQuotes(store QuoteStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := store.ExportQuotesToExcel(c.Request.Context(), &buf); err != nil {
			logger.Error("Failed to export quotes", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export quotes"})
			return
		}

		filename := "quotes_" + time.Now().UTC().Format("20060102_1504") + ".xlsx"
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
