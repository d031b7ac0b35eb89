package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"go.uber.org/zap"

	"apparel-configurator/internal/config"
	"apparel-configurator/internal/pricing"
)

var ErrInvalidProductID = errors.New("invalid product id")

// Metafield types written by this service.
const (
	MetafieldTypeSingleLine = "single_line_text_field"
	MetafieldTypeJSON       = "json"
)

// Client talks to one shop: REST Admin API for product metafields and the
// GraphQL Admin API for everything else.
type Client struct {
	rest        *goshopify.Client
	graphqlURL  string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewClient(cfg config.ShopifyConfig, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	app := goshopify.App{
		ApiKey:    cfg.APIKey,
		ApiSecret: cfg.APISecret,
	}
	rest, err := goshopify.NewClient(app, cfg.ShopName(), cfg.AccessToken, goshopify.WithVersion(cfg.APIVersion))
	if err != nil {
		return nil, fmt.Errorf("create shopify rest client: %w", err)
	}

	return &Client{
		rest:        rest,
		graphqlURL:  fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.ShopDomain, cfg.APIVersion),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

// ParseProductID accepts a numeric id or a "gid://shopify/Product/123" id.
func ParseProductID(id string) (uint64, error) {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "gid://shopify/Product/")
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidProductID, id)
	}
	return n, nil
}

// ProductMetafields lists all metafields on a product.
func (c *Client) ProductMetafields(ctx context.Context, productID string) ([]pricing.Metafield, error) {
	id, err := ParseProductID(productID)
	if err != nil {
		return nil, err
	}

	fields, err := c.rest.Product.ListMetafields(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("list metafields for product %d: %w", id, err)
	}

	out := make([]pricing.Metafield, 0, len(fields))
	for _, f := range fields {
		out = append(out, pricing.Metafield{
			Namespace: f.Namespace,
			Key:       f.Key,
			Value:     pricing.MetafieldValue(f.Value),
		})
	}
	return out, nil
}

// CreateProductMetafield adds one metafield of the given Shopify type.
func (c *Client) CreateProductMetafield(ctx context.Context, productID string, field pricing.Metafield, fieldType string) error {
	id, err := ParseProductID(productID)
	if err != nil {
		return err
	}

	mf := goshopify.Metafield{
		Namespace: field.Namespace,
		Key:       field.Key,
		Value:     field.Value,
	}
	switch fieldType {
	case MetafieldTypeJSON:
		mf.Type = MetafieldTypeJSON
	default:
		mf.Type = MetafieldTypeSingleLine
	}

	_, err = c.rest.Product.CreateMetafield(ctx, id, mf)
	if err != nil {
		return fmt.Errorf("create metafield %s.%s on product %d: %w", field.Namespace, field.Key, id, err)
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Execute runs a GraphQL query or mutation and decodes "data" into out.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("Shopify GraphQL call",
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("graphQL errors: %s", strings.Join(msgs, "; "))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
