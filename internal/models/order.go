package models

import "github.com/shopspring/decimal"

// OrderRow is one parsed data row of an order CSV.
type OrderRow struct {
	Row      int
	SKU      string
	Quantity int
	Price    decimal.Decimal
}

// Subtotal is the revenue contributed by the row.
func (o OrderRow) Subtotal() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

type BestSeller struct {
	SKU           string `json:"sku"`
	TotalQuantity int    `json:"total_quantity"`
}

// AnalysisResult is the aggregate returned by POST /analyze.
//
// SKUQuantities and SKURevenue share the same key set and iterate in the order
// SKUs first appeared in the uploaded file.
type AnalysisResult struct {
	TotalRevenue   float64       `json:"total_revenue"`
	BestSellingSKU BestSeller    `json:"best_selling_sku"`
	SKUQuantities  SKUQuantities `json:"sku_quantities"`
	SKURevenue     SKURevenue    `json:"sku_revenue"`
}

// Summary is the subset of a result shown in the JSON panel.
type Summary struct {
	TotalRevenue   float64    `json:"total_revenue"`
	BestSellingSKU BestSeller `json:"best_selling_sku"`
}

func (r *AnalysisResult) Summary() Summary {
	return Summary{
		TotalRevenue:   r.TotalRevenue,
		BestSellingSKU: r.BestSellingSKU,
	}
}
