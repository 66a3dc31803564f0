package client

import (
	"encoding/json"
	"fmt"
	"math"

	"order-insights/internal/models"
)

const revenueTolerance = 0.005

type wireBestSeller struct {
	SKU           *string `json:"sku"`
	TotalQuantity *int    `json:"total_quantity"`
}

type wireResult struct {
	TotalRevenue   *float64              `json:"total_revenue"`
	BestSellingSKU *wireBestSeller       `json:"best_selling_sku"`
	SKUQuantities  *models.SKUQuantities `json:"sku_quantities"`
	SKURevenue     *models.SKURevenue    `json:"sku_revenue"`
}

// DecodeResult parses a success body and checks it against the result
// invariants. Any violation is a *MalformedResponseError.
func DecodeResult(body []byte) (*models.AnalysisResult, error) {
	var wire wireResult
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}

	switch {
	case wire.TotalRevenue == nil:
		return nil, malformed("missing total_revenue")
	case wire.BestSellingSKU == nil:
		return nil, malformed("missing best_selling_sku")
	case wire.BestSellingSKU.SKU == nil:
		return nil, malformed("missing best_selling_sku.sku")
	case wire.BestSellingSKU.TotalQuantity == nil:
		return nil, malformed("missing best_selling_sku.total_quantity")
	case wire.SKUQuantities == nil:
		return nil, malformed("missing sku_quantities")
	case wire.SKURevenue == nil:
		return nil, malformed("missing sku_revenue")
	}

	result := &models.AnalysisResult{
		TotalRevenue: *wire.TotalRevenue,
		BestSellingSKU: models.BestSeller{
			SKU:           *wire.BestSellingSKU.SKU,
			TotalQuantity: *wire.BestSellingSKU.TotalQuantity,
		},
		SKUQuantities: *wire.SKUQuantities,
		SKURevenue:    *wire.SKURevenue,
	}

	if err := Validate(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Validate checks the cross-field invariants of a result.
func Validate(result *models.AnalysisResult) error {
	quantities, revenue := result.SKUQuantities, result.SKURevenue

	if quantities.Len() != revenue.Len() {
		return malformed(fmt.Sprintf("sku_quantities has %d keys, sku_revenue has %d", quantities.Len(), revenue.Len()))
	}
	for _, sku := range quantities.Keys() {
		if !revenue.Has(sku) {
			return malformed(fmt.Sprintf("sku %q missing from sku_revenue", sku))
		}
	}

	best := result.BestSellingSKU
	qty, ok := quantities.Get(best.SKU)
	if !ok {
		return malformed(fmt.Sprintf("best_selling_sku %q not in sku_quantities", best.SKU))
	}
	if qty != best.TotalQuantity {
		return malformed(fmt.Sprintf("best_selling_sku quantity %d does not match %d", best.TotalQuantity, qty))
	}
	for _, v := range quantities.Values() {
		if v > best.TotalQuantity {
			return malformed(fmt.Sprintf("best_selling_sku quantity %d is below another sku's %d", best.TotalQuantity, v))
		}
	}

	var sum float64
	for _, v := range revenue.Values() {
		sum += v
	}
	tolerance := math.Max(revenueTolerance, math.Abs(result.TotalRevenue)*1e-9)
	if math.Abs(sum-result.TotalRevenue) > tolerance {
		return malformed(fmt.Sprintf("total_revenue %v does not equal the sku_revenue sum %v", result.TotalRevenue, sum))
	}

	return nil
}

func malformed(reason string) *MalformedResponseError {
	return &MalformedResponseError{Reason: reason}
}
