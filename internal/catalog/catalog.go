package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"apparel-configurator/internal/pricing"
	"apparel-configurator/internal/shopify"
)

const (
	customNamespace  = "custom"
	decorationPrefix = "decoration_"

	productsPageSize = 100
	ordersPageSize   = 50
)

var ErrTemplateRequired = errors.New("template id is required")

type MetafieldSource interface {
	ProductMetafields(ctx context.Context, productID string) ([]pricing.Metafield, error)
	CreateProductMetafield(ctx context.Context, productID string, field pricing.Metafield, fieldType string) error
}

type MetafieldCache interface {
	GetMetafields(ctx context.Context, productID string) ([]pricing.Metafield, bool, error)
	SetMetafields(ctx context.Context, productID string, fields []pricing.Metafield) error
	DropMetafields(ctx context.Context, productID string) error
}

type AdminLister interface {
	ListProducts(ctx context.Context, first int) ([]shopify.Product, error)
	ListOrders(ctx context.Context, first int) ([]shopify.Order, error)
}

type Service struct {
	source MetafieldSource
	cache  MetafieldCache
	lister AdminLister
	logger *zap.Logger
}

func NewService(source MetafieldSource, cache MetafieldCache, lister AdminLister, logger *zap.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		lister: lister,
		logger: logger,
	}
}

// Metafields returns a product's metafields, read through the cache. Cache
// failures are logged and never fail the lookup.
func (s *Service) Metafields(ctx context.Context, productID string) ([]pricing.Metafield, error) {
	const operation = "catalog.Metafields"

	fields, ok, err := s.cache.GetMetafields(ctx, productID)
	if err != nil {
		s.logger.Warn("Metafield cache read failed",
			zap.String("product_id", productID),
			zap.Error(err))
	}
	if ok {
		return fields, nil
	}

	fields, err = s.source.ProductMetafields(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if fields == nil {
		fields = []pricing.Metafield{}
	}

	if err := s.cache.SetMetafields(ctx, productID, fields); err != nil {
		s.logger.Warn("Metafield cache write failed",
			zap.String("product_id", productID),
			zap.Error(err))
	}
	return fields, nil
}

// PricingConfig returns the pricing override for a product, or nil when no
// product is given.
func (s *Service) PricingConfig(ctx context.Context, productID string) (pricing.PricingConfig, error) {
	if productID == "" {
		return nil, nil
	}
	fields, err := s.Metafields(ctx, productID)
	if err != nil {
		return nil, err
	}
	return pricing.ConfigFromMetafields(fields), nil
}

// ProductConfig is the configurator's view of a product.
type ProductConfig struct {
	DecorationMethods map[string]map[string]string `json:"decorationMethods"`
	PricingTiers      map[string]any               `json:"pricingTiers"`
}

// ProductConfig groups custom.decoration_* metafields by the method name
// that follows the prefix.
func (s *Service) ProductConfig(ctx context.Context, productID string) (*ProductConfig, error) {
	fields, err := s.Metafields(ctx, productID)
	if err != nil {
		return nil, err
	}
	return BuildProductConfig(fields), nil
}

func BuildProductConfig(fields []pricing.Metafield) *ProductConfig {
	cfg := &ProductConfig{
		DecorationMethods: map[string]map[string]string{},
		PricingTiers:      map[string]any{},
	}
	for _, f := range fields {
		if f.Namespace != customNamespace || !strings.HasPrefix(f.Key, decorationPrefix) {
			continue
		}
		method := strings.TrimPrefix(f.Key, decorationPrefix)
		if cfg.DecorationMethods[method] == nil {
			cfg.DecorationMethods[method] = map[string]string{}
		}
		cfg.DecorationMethods[method][f.Key] = f.Value
	}
	return cfg
}

type SetupRequest struct {
	TemplateID     string                     `json:"templateId"`
	VariantMapping json.RawMessage            `json:"variantMapping,omitempty"`
	PrintAreas     map[string]json.RawMessage `json:"printAreas,omitempty"`
	Pricing        map[string]json.RawMessage `json:"pricing,omitempty"`
}

type SetupResult struct {
	ProductID string   `json:"productId"`
	Created   []string `json:"created"`
	Failed    []string `json:"failed,omitempty"`
}

// SetupProduct writes the template reference, print areas and pricing as
// custom metafields. A metafield that fails to save is logged and skipped.
func (s *Service) SetupProduct(ctx context.Context, productID string, req SetupRequest) (*SetupResult, error) {
	const operation = "catalog.SetupProduct"

	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, ErrTemplateRequired
	}
	if _, err := shopify.ParseProductID(productID); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	type pending struct {
		field pricing.Metafield
		typ   string
	}
	writes := []pending{{
		field: pricing.Metafield{Namespace: customNamespace, Key: "product_template", Value: req.TemplateID},
		typ:   shopify.MetafieldTypeSingleLine,
	}}
	for _, area := range sortedKeys(req.PrintAreas) {
		writes = append(writes, pending{
			field: pricing.Metafield{Namespace: customNamespace, Key: "print_area_" + area, Value: compactJSON(req.PrintAreas[area])},
			typ:   shopify.MetafieldTypeJSON,
		})
	}
	for _, method := range sortedKeys(req.Pricing) {
		writes = append(writes, pending{
			field: pricing.Metafield{Namespace: customNamespace, Key: "pricing_" + method, Value: compactJSON(req.Pricing[method])},
			typ:   shopify.MetafieldTypeJSON,
		})
	}

	result := &SetupResult{ProductID: productID, Created: []string{}}
	for _, w := range writes {
		if err := s.source.CreateProductMetafield(ctx, productID, w.field, w.typ); err != nil {
			s.logger.Error("Failed to create metafield",
				zap.String("product_id", productID),
				zap.String("key", w.field.Key),
				zap.Error(err))
			result.Failed = append(result.Failed, w.field.Key)
			continue
		}
		result.Created = append(result.Created, w.field.Key)
	}

	if err := s.cache.DropMetafields(ctx, productID); err != nil {
		s.logger.Warn("Failed to invalidate metafield cache",
			zap.String("product_id", productID),
			zap.Error(err))
	}

	s.logger.Info("Product configured",
		zap.String("product_id", productID),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]shopify.Product, error) {
	return s.lister.ListProducts(ctx, productsPageSize)
}

func (s *Service) ListOrders(ctx context.Context) ([]shopify.Order, error) {
	return s.lister.ListOrders(ctx, ordersPageSize)
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
