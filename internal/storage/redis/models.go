package redis

import (
	"time"

	"apparel-configurator/internal/pricing"
)

// CachedMetafields is the JSON payload stored under metafields:{productID}.
type CachedMetafields struct {
	ProductID string              `json:"product_id"`
	Fields    []pricing.Metafield `json:"fields"`
	CachedAt  time.Time           `json:"cached_at"`
}
