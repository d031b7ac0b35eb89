package pricing

import (
	"encoding/json"
	"fmt"
)

// Metafield is the part of a product metafield the engine cares about.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// ConfigFromMetafields keys values by metafield key alone, so the namespace
// is ignored and a later duplicate wins. A nil slice yields a nil config.
func ConfigFromMetafields(fields []Metafield) PricingConfig {
	if fields == nil {
		return nil
	}
	cfg := make(PricingConfig, len(fields))
	for _, f := range fields {
		cfg[f.Key] = f.Value
	}
	return cfg
}

// MetafieldValue renders a metafield value of any JSON type as the string the
// Admin API would have returned for it.
func MetafieldValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64, float32, int, int64, uint64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
