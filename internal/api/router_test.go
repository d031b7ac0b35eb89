package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"apparel-configurator/internal/catalog"
	"apparel-configurator/internal/config"
	"apparel-configurator/internal/designs"
	"apparel-configurator/internal/pricing"
	"apparel-configurator/internal/shopify"
	"apparel-configurator/internal/storage"
)

type fakeCatalog struct {
	configs   map[string]pricing.PricingConfig
	configErr error
	setupReq  catalog.SetupRequest
	listErr   error
}

func (f *fakeCatalog) PricingConfig(_ context.Context, productID string) (pricing.PricingConfig, error) {
	if productID == "" {
		return nil, nil
	}
	if f.configErr != nil {
		return nil, f.configErr
	}
	return f.configs[productID], nil
}

func (f *fakeCatalog) ProductConfig(_ context.Context, productID string) (*catalog.ProductConfig, error) {
	if _, err := shopify.ParseProductID(productID); err != nil {
		return nil, err
	}
	return catalog.BuildProductConfig([]pricing.Metafield{
		{Namespace: "custom", Key: "decoration_screenprint", Value: "enabled"},
	}), nil
}

func (f *fakeCatalog) SetupProduct(_ context.Context, productID string, req catalog.SetupRequest) (*catalog.SetupResult, error) {
	if req.TemplateID == "" {
		return nil, catalog.ErrTemplateRequired
	}
	f.setupReq = req
	return &catalog.SetupResult{ProductID: productID, Created: []string{"product_template"}}, nil
}

func (f *fakeCatalog) ListProducts(context.Context) ([]shopify.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []shopify.Product{{ID: "111", Title: "Heavy Tee", Handle: "heavy-tee"}}, nil
}

func (f *fakeCatalog) ListOrders(context.Context) ([]shopify.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []shopify.Order{{ID: "#1001", Total: "475.70"}}, nil
}

type fakeDesigns struct {
	created  map[string]any
	rejected string
	err      error
}

func (f *fakeDesigns) List(context.Context) ([]designs.Design, error) {
	return []designs.Design{{"id": "design-1", "status": "pending"}}, nil
}

func (f *fakeDesigns) ListPending(ctx context.Context) ([]designs.Design, error) { return f.List(ctx) }

func (f *fakeDesigns) ListTemplates(context.Context) ([]designs.Design, error) {
	return []designs.Design{{"id": "tee-template"}}, nil
}

func (f *fakeDesigns) Get(_ context.Context, handle string) (designs.Design, error) {
	if handle != "design-1" {
		return nil, designs.ErrNotFound
	}
	return designs.Design{"id": handle}, nil
}

func (f *fakeDesigns) Create(_ context.Context, data map[string]any) (designs.Design, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = data
	out := designs.Design{"id": "design-new"}
	for k, v := range data {
		out[k] = v
	}
	return out, nil
}

func (f *fakeDesigns) Update(_ context.Context, handle string, data map[string]any) (designs.Design, error) {
	if handle != "design-1" {
		return nil, designs.ErrNotFound
	}
	return designs.Design{"id": handle, "updated": "now"}, nil
}

func (f *fakeDesigns) Approve(_ context.Context, handle string) error {
	if handle != "design-1" {
		return designs.ErrNotFound
	}
	return nil
}

func (f *fakeDesigns) Reject(_ context.Context, handle, reason string) error {
	f.rejected = reason
	return nil
}

type fakeQuotes struct {
	saved   []storage.Quote
	saveErr error
	limit   int
}

func (f *fakeQuotes) SaveQuote(_ context.Context, q storage.Quote) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, q)
	return nil
}

func (f *fakeQuotes) GetQuote(_ context.Context, id uuid.UUID) (*storage.Quote, error) {
	for _, q := range f.saved {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, fmt.Errorf("storage.GetQuote: %w", storage.ErrQuoteNotFound)
}

func (f *fakeQuotes) ListQuotes(_ context.Context, limit int) ([]storage.Quote, error) {
	f.limit = limit
	return f.saved, nil
}

func (f *fakeQuotes) GetQuoteStatistics(context.Context) (*storage.QuoteStatistics, error) {
	return &storage.QuoteStatistics{
		TotalQuotes: len(f.saved),
		TotalValue:  decimal.NewFromInt(0),
		ByMethod:    map[string]storage.MethodStatistics{},
	}, nil
}

func (f *fakeQuotes) ExportQuotesToExcel(_ context.Context, w io.Writer) error {
	return storage.WriteQuotesWorkbook(w, f.saved)
}

type testEnv struct {
	router  *gin.Engine
	catalog *fakeCatalog
	designs *fakeDesigns
	quotes  *fakeQuotes
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		catalog: &fakeCatalog{configs: map[string]pricing.PricingConfig{}},
		designs: &fakeDesigns{},
		quotes:  &fakeQuotes{},
	}
	cfg := &config.Config{Environment: "test"}
	env.router = NewRouter(cfg, Services{
		Catalog: env.catalog,
		Designs: env.designs,
		Quotes:  env.quotes,
	}, zap.NewNop())
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestCalculatePrice(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		overrides map[string]pricing.PricingConfig
		want      pricing.Result
	}{
		{
			name: "screenprint two locations",
			body: `{"decorationMethod":"screenprint","quantity":10,"colorCounts":[3,2],"locationCount":2}`,
			want: pricing.Result{EachItem: 30.07, SetupFee: 175, Total: 475.7},
		},
		{
			name: "embroidery single location",
			body: `{"decorationMethod":"embroidery","quantity":1,"colorCounts":[1],"locationCount":1}`,
			want: pricing.Result{EachItem: 19.99, SetupFee: 50, Total: 69.99},
		},
		{
			name:      "product override",
			body:      `{"decorationMethod":"screenprint","quantity":10,"colorCounts":[3,2],"locationCount":2,"productId":"111"}`,
			overrides: map[string]pricing.PricingConfig{"111": {"extra_color_fee": "3.00"}},
			want:      pricing.Result{EachItem: 32.95, SetupFee: 175, Total: 504.5},
		},
		{
			name: "numeric strings",
			body: `{"decorationMethod":"screenprint","quantity":"10","colorCounts":["3","2"],"locationCount":"2"}`,
			want: pricing.Result{EachItem: 30.07, SetupFee: 175, Total: 475.7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.overrides != nil {
				env.catalog.configs = tt.overrides
			}

			w := env.do(http.MethodPost, "/api/price/calculate", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			var got pricing.Result
			decodeBody(t, w, &got)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if len(env.quotes.saved) != 1 {
				t.Fatalf("saved %d quotes, want 1", len(env.quotes.saved))
			}
			if env.quotes.saved[0].Overridden != (tt.overrides != nil) {
				t.Errorf("overridden = %v", env.quotes.saved[0].Overridden)
			}
		})
	}
}

func TestCalculatePrice_ValidationErrors(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"quantity":10,"colorCounts":[1],"locationCount":1}`, pricing.ReasonMissingParameters},
		{`{"decorationMethod":"screenprint","colorCounts":[1],"locationCount":1}`, pricing.ReasonMissingParameters},
		{`{"decorationMethod":"dtg","quantity":10,"colorCounts":[1],"locationCount":1}`, pricing.ReasonInvalidDecorationMethod},
		{`{"decorationMethod":"screenprint","quantity":0,"colorCounts":[1],"locationCount":1}`, pricing.ReasonMissingParameters},
		{`{"decorationMethod":"screenprint","quantity":-2,"colorCounts":[1],"locationCount":1}`, pricing.ReasonInvalidQuantity},
		{`{"decorationMethod":"screenprint","quantity":5,"colorCounts":0,"locationCount":1}`, pricing.ReasonMissingParameters},
		{`{"decorationMethod":"screenprint","quantity":"ten","colorCounts":[1],"locationCount":1}`, pricing.ReasonInvalidQuantity},
		{`{"decorationMethod":"screenprint","quantity":5,"colorCounts":"3","locationCount":1}`, pricing.ReasonColorCountsNotArray},
		{`{"decorationMethod":"screenprint","quantity":5,"colorCounts":[1],"locationCount":-1}`, pricing.ReasonInvalidLocationCount},
		{`not json`, pricing.ReasonMalformedBody},
	}

	for _, tt := range tests {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, "/api/price/calculate", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", tt.body, w.Code)
			continue
		}
		var got map[string]string
		decodeBody(t, w, &got)
		if got["error"] != tt.want {
			t.Errorf("%s: error = %q, want %q", tt.body, got["error"], tt.want)
		}
		if len(env.quotes.saved) != 0 {
			t.Errorf("%s: rejected request was recorded", tt.body)
		}
	}
}

func TestCalculatePrice_EmptyLocationCount(t *testing.T) {
	for _, loc := range []string{`null`, `""`} {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, "/api/price/calculate",
			`{"decorationMethod":"screenprint","quantity":3,"colorCounts":[1],"locationCount":`+loc+`}`)
		if w.Code != http.StatusOK {
			t.Errorf("locationCount %s: status = %d, body = %s", loc, w.Code, w.Body.String())
			continue
		}
		var got pricing.Result
		decodeBody(t, w, &got)
		if got != (pricing.Result{EachItem: 15.87, SetupFee: 50, Total: 97.61}) {
			t.Errorf("locationCount %s: got %+v", loc, got)
		}
		if len(env.quotes.saved) != 1 || env.quotes.saved[0].LocationCount != 0 {
			t.Errorf("locationCount %s: saved %+v", loc, env.quotes.saved)
		}
	}
}

func TestCalculatePrice_LookupFailureUsesDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.configErr = errors.New("shopify: 503")
	env.quotes.saveErr = errors.New("db down")

	w := env.do(http.MethodPost, "/api/price/calculate",
		`{"decorationMethod":"embroidery","quantity":1,"colorCounts":[1],"locationCount":1,"productId":"111"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got pricing.Result
	decodeBody(t, w, &got)
	if got != (pricing.Result{EachItem: 19.99, SetupFee: 50, Total: 69.99}) {
		t.Errorf("got %+v", got)
	}
}

func TestHealthAndRoot(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/health", "")
	var health map[string]string
	decodeBody(t, w, &health)
	if w.Code != http.StatusOK || health["status"] != "OK" {
		t.Errorf("health = %d %v", w.Code, health)
	}
	if _, err := time.Parse(time.RFC3339, health["timestamp"]); err != nil {
		t.Errorf("timestamp %q: %v", health["timestamp"], err)
	}

	w = env.do(http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "running") {
		t.Errorf("root = %d %q", w.Code, w.Body.String())
	}
}

func TestProductConfig(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/products/111/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got catalog.ProductConfig
	decodeBody(t, w, &got)
	if got.DecorationMethods["screenprint"]["decoration_screenprint"] != "enabled" {
		t.Errorf("got %+v", got)
	}

	w = env.do(http.MethodGet, "/api/products/not-a-number/config", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d", w.Code)
	}
}

func TestDesignRoutes(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(http.MethodGet, "/api/designs", ""); w.Code != http.StatusOK {
		t.Errorf("list status = %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/designs/design-1", ""); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/designs/design-404", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing get status = %d", w.Code)
	}

	// designData may arrive as a JSON-encoded string.
	w := env.do(http.MethodPost, "/api/designs", `{"designData":"{\"name\":\"Team tee\",\"colors\":2}"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	if env.designs.created["name"] != "Team tee" || env.designs.created["colors"] != float64(2) {
		t.Errorf("created = %v", env.designs.created)
	}

	w = env.do(http.MethodPost, "/api/designs", `{"designData":{"name":"Hat"}}`)
	if w.Code != http.StatusCreated {
		t.Errorf("object create status = %d", w.Code)
	}

	if w := env.do(http.MethodPost, "/api/designs", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty create status = %d", w.Code)
	}

	if w := env.do(http.MethodPut, "/api/designs/design-1", `{"designData":{"name":"x"}}`); w.Code != http.StatusOK {
		t.Errorf("update status = %d", w.Code)
	}
	if w := env.do(http.MethodPut, "/api/designs/design-404", `{"designData":{"name":"x"}}`); w.Code != http.StatusNotFound {
		t.Errorf("missing update status = %d", w.Code)
	}
}

func TestCreateDesign_UserErrors(t *testing.T) {
	env := newTestEnv(t)
	env.designs.err = &shopify.UserErrorsError{
		Op:     "metaobjectCreate",
		Errors: []shopify.UserError{{Field: []string{"handle"}, Message: "Handle is taken", Code: "TAKEN"}},
	}

	w := env.do(http.MethodPost, "/api/designs", `{"designData":{"name":"x"}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var got struct {
		Error   string              `json:"error"`
		Details []shopify.UserError `json:"details"`
	}
	decodeBody(t, w, &got)
	if got.Error != "Failed to create design" || len(got.Details) != 1 || got.Details[0].Code != "TAKEN" {
		t.Errorf("got %+v", got)
	}
}

func TestDesignWorkflow(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(http.MethodGet, "/api/admin/designs/pending", ""); w.Code != http.StatusOK {
		t.Errorf("pending status = %d", w.Code)
	}

	w := env.do(http.MethodPut, "/api/admin/designs/design-1/approve", "")
	var approved map[string]any
	decodeBody(t, w, &approved)
	if w.Code != http.StatusOK || approved["success"] != true {
		t.Errorf("approve = %d %v", w.Code, approved)
	}
	if w := env.do(http.MethodPut, "/api/admin/designs/design-404/approve", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing approve status = %d", w.Code)
	}

	w = env.do(http.MethodPut, "/api/admin/designs/design-1/reject", `{"reason":"Blurry artwork"}`)
	var rejected map[string]any
	decodeBody(t, w, &rejected)
	if w.Code != http.StatusOK || rejected["reason"] != "Blurry artwork" || env.designs.rejected != "Blurry artwork" {
		t.Errorf("reject = %d %v", w.Code, rejected)
	}

	if w := env.do(http.MethodPut, "/api/admin/designs/design-1/reject", ""); w.Code != http.StatusOK {
		t.Errorf("reject without body status = %d", w.Code)
	}
}

func TestAdminListings(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/admin/orders", "/api/admin/products", "/api/admin/templates"} {
		if w := env.do(http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}

	env.catalog.listErr = errors.New("throttled")
	w := env.do(http.MethodGet, "/api/admin/orders", "")
	var got map[string]string
	decodeBody(t, w, &got)
	if w.Code != http.StatusInternalServerError || got["error"] != "Failed to fetch orders" {
		t.Errorf("orders failure = %d %v", w.Code, got)
	}
}

func TestSetupProduct(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/admin/products/111/setup",
		`{"templateId":"tee-template","printAreas":{"front":{"width":12}},"pricing":{"screenprint":{"base":15.87}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if env.catalog.setupReq.TemplateID != "tee-template" || len(env.catalog.setupReq.PrintAreas) != 1 {
		t.Errorf("setup request = %+v", env.catalog.setupReq)
	}

	w = env.do(http.MethodPost, "/api/admin/products/111/setup", `{"printAreas":{}}`)
	var got map[string]string
	decodeBody(t, w, &got)
	if w.Code != http.StatusBadRequest || got["error"] != "Template ID is required" {
		t.Errorf("missing template = %d %v", w.Code, got)
	}
}

func TestQuoteRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/api/price/calculate",
		`{"decorationMethod":"screenprint","quantity":10,"colorCounts":[3,2],"locationCount":2}`)
	if len(env.quotes.saved) != 1 {
		t.Fatalf("saved %d quotes", len(env.quotes.saved))
	}
	id := env.quotes.saved[0].ID

	w := env.do(http.MethodGet, "/api/admin/quotes?limit=1000", "")
	if w.Code != http.StatusOK || env.quotes.limit != 500 {
		t.Errorf("list = %d, limit = %d", w.Code, env.quotes.limit)
	}
	if w := env.do(http.MethodGet, "/api/admin/quotes?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/admin/quotes/"+id.String(), "")
	var q map[string]any
	decodeBody(t, w, &q)
	if w.Code != http.StatusOK || q["total"] != "475.7" {
		t.Errorf("get = %d %v", w.Code, q)
	}
	if w := env.do(http.MethodGet, "/api/admin/quotes/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Errorf("missing quote status = %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/admin/quotes/nope", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}

	if w := env.do(http.MethodGet, "/api/admin/quotes/stats", ""); w.Code != http.StatusOK {
		t.Errorf("stats status = %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/admin/quotes/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("export is not a zip container")
	}
}
