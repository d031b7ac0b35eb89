package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"apparel-configurator/internal/designs"
	"apparel-configurator/internal/shopify"
)

type designRequest struct {
	DesignData json.RawMessage `json:"designData"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleListDesigns handles GET /api/designs
func HandleListDesigns(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			logger.Error("Designs retrieval error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch designs"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// HandleListPendingDesigns handles GET /api/admin/designs/pending
func HandleListPendingDesigns(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListPending(c.Request.Context())
		if err != nil {
			logger.Error("Pending designs retrieval error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending designs"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// HandleListTemplates handles GET /api/admin/templates
func HandleListTemplates(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListTemplates(c.Request.Context())
		if err != nil {
			logger.Error("Templates retrieval error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// HandleGetDesign handles GET /api/designs/:id
func HandleGetDesign(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := c.Param("id")
		if handle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Design ID is required"})
			return
		}

		d, err := svc.Get(c.Request.Context(), handle)
		if err != nil {
			if errors.Is(err, designs.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Design not found"})
				return
			}
			logger.Error("Design retrieval error", zap.String("handle", handle), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch design"})
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// HandleCreateDesign handles POST /api/designs
func HandleCreateDesign(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, ok := bindDesignData(c)
		if !ok {
			return
		}

		d, err := svc.Create(c.Request.Context(), data)
		if err != nil {
			if respondDesignError(c, err, "Failed to create design") {
				return
			}
			logger.Error("Design save error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save design"})
			return
		}

		d["images"] = []string{}
		c.JSON(http.StatusCreated, d)
	}
}

// HandleUpdateDesign handles PUT /api/designs/:id
func HandleUpdateDesign(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := c.Param("id")
		if handle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Design ID is required"})
			return
		}
		data, ok := bindDesignData(c)
		if !ok {
			return
		}

		d, err := svc.Update(c.Request.Context(), handle, data)
		if err != nil {
			if respondDesignError(c, err, "Failed to update design") {
				return
			}
			logger.Error("Design update error", zap.String("handle", handle), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update design"})
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// HandleApproveDesign handles PUT /api/admin/designs/:id/approve
func HandleApproveDesign(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := c.Param("id")

		if err := svc.Approve(c.Request.Context(), handle); err != nil {
			if respondDesignError(c, err, "Failed to approve design") {
				return
			}
			logger.Error("Design approval error", zap.String("handle", handle), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve design"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Design " + handle + " approved successfully",
		})
	}
}

// HandleRejectDesign handles PUT /api/admin/designs/:id/reject
func HandleRejectDesign(svc DesignService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := c.Param("id")

		var req rejectRequest
		body, err := c.GetRawData()
		if err == nil && len(body) > 0 {
			err = json.Unmarshal(body, &req)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := svc.Reject(c.Request.Context(), handle, req.Reason); err != nil {
			if respondDesignError(c, err, "Failed to reject design") {
				return
			}
			logger.Error("Design rejection error", zap.String("handle", handle), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject design"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Design " + handle + " rejected successfully",
			"reason":  req.Reason,
		})
	}
}

// bindDesignData accepts designData as an object or as a JSON-encoded
// string holding one.
func bindDesignData(c *gin.Context) (map[string]any, bool) {
	var req designRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	raw := req.DesignData
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}

	var data map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &data) != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Design data is required"})
		return nil, false
	}
	return data, true
}

// respondDesignError writes the client-facing response for known design
// errors and reports whether it did.
func respondDesignError(c *gin.Context, err error, failure string) bool {
	var ue *shopify.UserErrorsError
	switch {
	case errors.As(err, &ue):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   failure,
			"details": ue.Errors,
		})
	case errors.Is(err, designs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Design not found"})
	case errors.Is(err, designs.ErrDesignDataRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Design data is required"})
	default:
		return false
	}
	return true
}
