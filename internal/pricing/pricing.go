package pricing

import (
	"math"
	"strconv"
	"strings"
)

// DecorationMethod selects the base item price and setup fee.
type DecorationMethod string

const (
	Screenprint DecorationMethod = "screenprint"
	Embroidery  DecorationMethod = "embroidery"
)

// Valid reports whether m is one of the supported methods.
func (m DecorationMethod) Valid() bool {
	return m == Screenprint || m == Embroidery
}

// Metafield keys holding per-product overrides. The two base keys are
// suffixed with the decoration method.
const (
	KeyBaseItemPricePrefix   = "base_item_price_"
	KeyBaseSetupFeePrefix    = "base_setup_fee_"
	KeyExtraColorFee         = "extra_color_fee"
	KeyExtraSetupPerColor    = "extra_setup_per_color"
	KeyExtraSetupPerLocation = "extra_setup_per_location"
	KeyExtraItemPerLocation  = "extra_item_per_location"
)

// PricingConfig is an optional override: metafield key to its raw decimal
// string. A nil config means defaults are used unconditionally.
type PricingConfig map[string]string

// Rates are the six resolved pricing parameters for one decoration method.
type Rates struct {
	BaseItemPrice         float64
	BaseSetupFee          float64
	ExtraColorFee         float64
	ExtraSetupPerColor    float64
	ExtraSetupPerLocation float64
	ExtraItemPerLocation  float64
}

// NewDefaultRates returns the built-in rates used when a product has no
// override for a parameter.
func NewDefaultRates(method DecorationMethod) Rates {
	base := 15.87
	if method == Embroidery {
		base = 19.99
	}
	return Rates{
		BaseItemPrice:         base,
		BaseSetupFee:          50,
		ExtraColorFee:         2.04,
		ExtraSetupPerColor:    25,
		ExtraSetupPerLocation: 50,
		ExtraItemPerLocation:  8.08,
	}
}

// ResolveRates resolves every parameter on its own: an override value is
// used only when present and parseable, otherwise that one parameter keeps
// its default.
func ResolveRates(method DecorationMethod, cfg PricingConfig) Rates {
	def := NewDefaultRates(method)
	return Rates{
		BaseItemPrice:         cfg.resolve(KeyBaseItemPricePrefix+string(method), def.BaseItemPrice),
		BaseSetupFee:          cfg.resolve(KeyBaseSetupFeePrefix+string(method), def.BaseSetupFee),
		ExtraColorFee:         cfg.resolve(KeyExtraColorFee, def.ExtraColorFee),
		ExtraSetupPerColor:    cfg.resolve(KeyExtraSetupPerColor, def.ExtraSetupPerColor),
		ExtraSetupPerLocation: cfg.resolve(KeyExtraSetupPerLocation, def.ExtraSetupPerLocation),
		ExtraItemPerLocation:  cfg.resolve(KeyExtraItemPerLocation, def.ExtraItemPerLocation),
	}
}

func (c PricingConfig) resolve(key string, def float64) float64 {
	if c == nil {
		return def
	}
	raw, ok := c[key]
	if !ok {
		return def
	}
	v, ok := parseDecimal(raw)
	if !ok {
		return def
	}
	return v
}

func parseDecimal(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Request is a quote request as read from the storefront. It is validated
// on use: nil pointers and a nil ColorCounts slice mean the field was
// missing.
type Request struct {
	DecorationMethod DecorationMethod
	Quantity         *float64
	ColorCounts      []float64
	LocationCount    *float64
	ProductID        string

	colorCountsNotArray bool
}

type Result struct {
	EachItem float64 `json:"eachItem"`
	SetupFee float64 `json:"setupFee"`
	Total    float64 `json:"total"`
}

func (r Request) Validate() error {
	if r.DecorationMethod == "" || r.Quantity == nil || r.ColorCounts == nil || r.LocationCount == nil {
		return &ValidationError{Reason: ReasonMissingParameters}
	}
	if !r.DecorationMethod.Valid() {
		return &ValidationError{Reason: ReasonInvalidDecorationMethod}
	}
	if q := *r.Quantity; math.IsNaN(q) || q <= 0 {
		return &ValidationError{Reason: ReasonInvalidQuantity}
	}
	if r.colorCountsNotArray {
		return &ValidationError{Reason: ReasonColorCountsNotArray}
	}
	if l := *r.LocationCount; math.IsNaN(l) || l < 0 {
		return &ValidationError{Reason: ReasonInvalidLocationCount}
	}
	return nil
}

// CalculatePrice quotes a decorated item order. cfg may be nil.
func CalculatePrice(req Request, cfg PricingConfig) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	rates := ResolveRates(req.DecorationMethod, cfg)
	extraLocations := math.Max(0, *req.LocationCount-1)

	// One color per location is included in the base price.
	var extraColors, additionalSetup float64
	for _, colors := range req.ColorCounts {
		if colors > 1 {
			extraColors += colors - 1
			additionalSetup += (colors - 1) * rates.ExtraSetupPerColor
		}
	}
	additionalSetup += extraLocations * rates.ExtraSetupPerLocation

	eachItem := rates.BaseItemPrice + extraLocations*rates.ExtraItemPerLocation + extraColors*rates.ExtraColorFee
	setupFee := rates.BaseSetupFee + additionalSetup
	total := eachItem*(*req.Quantity) + setupFee

	return Result{
		EachItem: RoundCents(eachItem),
		SetupFee: RoundCents(setupFee),
		Total:    RoundCents(total),
	}, nil
}
