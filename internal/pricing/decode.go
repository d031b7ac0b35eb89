package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type wireRequest struct {
	DecorationMethod json.RawMessage `json:"decorationMethod"`
	Quantity         json.RawMessage `json:"quantity"`
	ColorCounts      json.RawMessage `json:"colorCounts"`
	LocationCount    json.RawMessage `json:"locationCount"`
	ProductID        json.RawMessage `json:"productId"`
}

// DecodeRequest reads a storefront JSON body. It is lenient the way the
// storefront expects: numbers may arrive as numeric strings, and values that
// are present but not numeric become NaN so Validate rejects them with the
// right reason.
//
// decorationMethod, quantity and colorCounts count as missing when they are
// empty (null, false, 0 or ""). locationCount is missing only when the key is
// left out; null, false and blank strings read as 0.
func DecodeRequest(body []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(body, &w); err != nil {
		return Request{}, &ValidationError{Reason: ReasonMalformedBody}
	}

	req := Request{
		LocationCount: decodeNumber(w.LocationCount),
	}
	if !empty(w.DecorationMethod) {
		req.DecorationMethod = DecorationMethod(decodeString(w.DecorationMethod))
	}
	if !empty(w.Quantity) {
		req.Quantity = decodeNumber(w.Quantity)
	}
	if !empty(w.ProductID) {
		req.ProductID = decodeString(w.ProductID)
	}

	if !empty(w.ColorCounts) {
		var elems []json.RawMessage
		if err := json.Unmarshal(w.ColorCounts, &elems); err != nil {
			req.colorCountsNotArray = true
			req.ColorCounts = []float64{}
		} else {
			req.ColorCounts = make([]float64, 0, len(elems))
			for _, e := range elems {
				n := decodeNumber(e)
				if math.IsNaN(*n) {
					// Non-numeric entries never exceed one color.
					req.ColorCounts = append(req.ColorCounts, 0)
					continue
				}
				req.ColorCounts = append(req.ColorCounts, *n)
			}
		}
	}

	return req, nil
}

func absent(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0
}

// empty reports whether raw is left out or holds null, false, zero or "".
func empty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f == 0
	}
	return false
}

func decodeString(raw json.RawMessage) string {
	if absent(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(bytes.TrimSpace(raw))
}

// decodeNumber returns nil only for a left-out value. null, false and blank
// strings are 0 and true is 1.
func decodeNumber(raw json.RawMessage) *float64 {
	if absent(raw) {
		return nil
	}

	var v float64
	switch string(bytes.TrimSpace(raw)) {
	case "null", "false":
		return &v
	case "true":
		v = 1
		return &v
	}

	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}

	nan := math.NaN()
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return &nan
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return &v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return &nan
	}
	return &v
}
