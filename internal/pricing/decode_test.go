package pricing

import (
	"errors"
	"testing"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{
		"decorationMethod": "screenprint",
		"quantity": "10",
		"colorCounts": [3, "2", "x", null],
		"locationCount": 2,
		"productId": 8123456789
	}`))
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}

	if req.DecorationMethod != Screenprint {
		t.Errorf("DecorationMethod = %q", req.DecorationMethod)
	}
	if req.Quantity == nil || *req.Quantity != 10 {
		t.Errorf("Quantity = %v, want 10", req.Quantity)
	}
	if req.LocationCount == nil || *req.LocationCount != 2 {
		t.Errorf("LocationCount = %v, want 2", req.LocationCount)
	}
	if req.ProductID != "8123456789" {
		t.Errorf("ProductID = %q", req.ProductID)
	}
	want := []float64{3, 2, 0, 0}
	if len(req.ColorCounts) != len(want) {
		t.Fatalf("ColorCounts = %v, want %v", req.ColorCounts, want)
	}
	for i := range want {
		if req.ColorCounts[i] != want[i] {
			t.Errorf("ColorCounts[%d] = %v, want %v", i, req.ColorCounts[i], want[i])
		}
	}

	got, err := CalculatePrice(req, nil)
	if err != nil {
		t.Fatalf("CalculatePrice failed: %v", err)
	}
	if got.Total != 475.7 {
		t.Errorf("Total = %v, want 475.7", got.Total)
	}
}

func TestDecodeRequest_ValidationReasons(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"malformed", `{"quantity":`, ReasonMalformedBody},
		{"location count undefined", `{"decorationMethod":"embroidery","quantity":1,"colorCounts":[1]}`, ReasonMissingParameters},
		{"empty quantity string", `{"decorationMethod":"embroidery","quantity":"","colorCounts":[1],"locationCount":1}`, ReasonMissingParameters},
		{"zero quantity", `{"decorationMethod":"embroidery","quantity":0,"colorCounts":[1],"locationCount":1}`, ReasonMissingParameters},
		{"null quantity", `{"decorationMethod":"embroidery","quantity":null,"colorCounts":[1],"locationCount":1}`, ReasonMissingParameters},
		{"zero quantity string", `{"decorationMethod":"embroidery","quantity":"0","colorCounts":[1],"locationCount":1}`, ReasonInvalidQuantity},
		{"blank quantity string", `{"decorationMethod":"embroidery","quantity":"  ","colorCounts":[1],"locationCount":1}`, ReasonInvalidQuantity},
		{"zero method", `{"decorationMethod":0,"quantity":1,"colorCounts":[1],"locationCount":1}`, ReasonMissingParameters},
		{"zero color counts", `{"decorationMethod":"embroidery","quantity":1,"colorCounts":0,"locationCount":1}`, ReasonMissingParameters},
		{"empty color counts string", `{"decorationMethod":"embroidery","quantity":1,"colorCounts":"","locationCount":1}`, ReasonMissingParameters},
		{"false color counts", `{"decorationMethod":"embroidery","quantity":1,"colorCounts":false,"locationCount":1}`, ReasonMissingParameters},
		{"sublimation", `{"decorationMethod":"sublimation","quantity":1,"colorCounts":[1],"locationCount":1}`, ReasonInvalidDecorationMethod},
		{"non numeric quantity", `{"decorationMethod":"embroidery","quantity":"ten","colorCounts":[1],"locationCount":1}`, ReasonInvalidQuantity},
		{"color counts string", `{"decorationMethod":"embroidery","quantity":1,"colorCounts":"3,2","locationCount":1}`, ReasonColorCountsNotArray},
		{"color counts object", `{"decorationMethod":"embroidery","quantity":1,"colorCounts":{"0":3},"locationCount":1}`, ReasonColorCountsNotArray},
		{"non numeric location count", `{"decorationMethod":"embroidery","quantity":1,"colorCounts":[1],"locationCount":"front"}`, ReasonInvalidLocationCount},
		// Quantity is checked before color counts.
		{"ordering", `{"decorationMethod":"embroidery","quantity":-5,"colorCounts":"x","locationCount":1}`, ReasonInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tt.body))
			if err == nil {
				_, err = CalculatePrice(req, nil)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", verr.Reason, tt.reason)
			}
		})
	}
}

func TestDecodeRequest_EmptyColorCountsIsPresent(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"decorationMethod":"screenprint","quantity":1,"colorCounts":[],"locationCount":0}`))
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	got, err := CalculatePrice(req, nil)
	if err != nil {
		t.Fatalf("CalculatePrice failed: %v", err)
	}
	want := Result{EachItem: 15.87, SetupFee: 50, Total: 65.87}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecodeRequest_EmptyLocationCountIsZero(t *testing.T) {
	for _, loc := range []string{`null`, `""`, `" "`, `false`} {
		t.Run(loc, func(t *testing.T) {
			req, err := DecodeRequest([]byte(`{"decorationMethod":"screenprint","quantity":3,"colorCounts":[1],"locationCount":` + loc + `}`))
			if err != nil {
				t.Fatalf("DecodeRequest failed: %v", err)
			}
			if req.LocationCount == nil || *req.LocationCount != 0 {
				t.Fatalf("LocationCount = %v, want 0", req.LocationCount)
			}
			got, err := CalculatePrice(req, nil)
			if err != nil {
				t.Fatalf("CalculatePrice failed: %v", err)
			}
			want := Result{EachItem: 15.87, SetupFee: 50, Total: 97.61}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestDecodeRequest_ZeroProductIDIsIgnored(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"decorationMethod":"screenprint","quantity":1,"colorCounts":[1],"locationCount":1,"productId":0}`))
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if req.ProductID != "" {
		t.Errorf("ProductID = %q, want empty", req.ProductID)
	}
}
