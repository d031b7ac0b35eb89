package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"apparel-configurator/internal/catalog"
	"apparel-configurator/internal/designs"
	"apparel-configurator/internal/pricing"
	"apparel-configurator/internal/shopify"
	"apparel-configurator/internal/storage"
)

type CatalogService interface {
	PricingConfig(ctx context.Context, productID string) (pricing.PricingConfig, error)
	ProductConfig(ctx context.Context, productID string) (*catalog.ProductConfig, error)
	SetupProduct(ctx context.Context, productID string, req catalog.SetupRequest) (*catalog.SetupResult, error)
	ListProducts(ctx context.Context) ([]shopify.Product, error)
	ListOrders(ctx context.Context) ([]shopify.Order, error)
}

type DesignService interface {
	List(ctx context.Context) ([]designs.Design, error)
	ListPending(ctx context.Context) ([]designs.Design, error)
	ListTemplates(ctx context.Context) ([]designs.Design, error)
	Get(ctx context.Context, handle string) (designs.Design, error)
	Create(ctx context.Context, data map[string]any) (designs.Design, error)
	Update(ctx context.Context, handle string, data map[string]any) (designs.Design, error)
	Approve(ctx context.Context, handle string) error
	Reject(ctx context.Context, handle, reason string) error
}

type QuoteStore interface {
	SaveQuote(ctx context.Context, q storage.Quote) error
	GetQuote(ctx context.Context, id uuid.UUID) (*storage.Quote, error)
	ListQuotes(ctx context.Context, limit int) ([]storage.Quote, error)
	GetQuoteStatistics(ctx context.Context) (*storage.QuoteStatistics, error)
	ExportQuotesToExcel(ctx context.Context, w io.Writer) error
}
