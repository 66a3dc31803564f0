// Package render projects an analysis result onto what the dashboard and the
// terminal client display. Everything here is a pure function of its input.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"order-insights/internal/models"
)

// Palette is assigned to chart categories by position and wraps around when
// there are more SKUs than colors.
var Palette = []string{"#38bdf8", "#818cf8", "#f472b6", "#34d399", "#fbbf24", "#fb923c"}

const unitsSuffix = " units sold"

type ChartKind string

const (
	ChartBar      ChartKind = "bar"
	ChartDoughnut ChartKind = "doughnut"
)

type Chart struct {
	ID     string    `json:"id"`
	Kind   ChartKind `json:"kind"`
	Label  string    `json:"label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

type Summary struct {
	TotalRevenue    string `json:"total_revenue"`
	BestSKU         string `json:"best_sku"`
	BestSKUQuantity string `json:"best_sku_quantity"`
}

// View is everything shown for one successful submission.
type View struct {
	Summary   Summary `json:"summary"`
	Quantity  Chart   `json:"quantity_chart"`
	Revenue   Chart   `json:"revenue_chart"`
	JSONPanel string  `json:"json_panel"`
}

func Project(result *models.AnalysisResult) (View, error) {
	if result == nil {
		return View{}, fmt.Errorf("render: nil result")
	}

	panel, err := JSONPanel(result)
	if err != nil {
		return View{}, err
	}

	labels := result.SKUQuantities.Keys()

	quantities := make([]float64, 0, len(labels))
	revenues := make([]float64, 0, len(labels))
	for _, sku := range labels {
		q, _ := result.SKUQuantities.Get(sku)
		r, _ := result.SKURevenue.Get(sku)
		quantities = append(quantities, float64(q))
		revenues = append(revenues, r)
	}

	return View{
		Summary: Summary{
			TotalRevenue:    FormatRevenue(result.TotalRevenue),
			BestSKU:         result.BestSellingSKU.SKU,
			BestSKUQuantity: fmt.Sprintf("%d%s", result.BestSellingSKU.TotalQuantity, unitsSuffix),
		},
		Quantity: Chart{
			ID:     "qtyChart",
			Kind:   ChartBar,
			Label:  "Quantity",
			Labels: labels,
			Values: quantities,
			Colors: Colors(len(labels)),
		},
		Revenue: Chart{
			ID:     "revChart",
			Kind:   ChartDoughnut,
			Label:  "Revenue",
			Labels: append([]string(nil), labels...),
			Values: revenues,
			Colors: Colors(len(labels)),
		},
		JSONPanel: panel,
	}, nil
}

// FormatRevenue renders v with exactly two fraction digits and en-US digit
// grouping, e.g. 1234.5 -> "1,234.50".
func FormatRevenue(v float64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return p.Sprint(number.Decimal(v, number.Scale(2)))
}

func ColorFor(i int) string {
	return Palette[i%len(Palette)]
}

func Colors(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = ColorFor(i)
	}
	return colors
}

// JSONPanel is the indented JSON of total_revenue and best_selling_sku only.
func JSONPanel(result *models.AnalysisResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Summary()); err != nil {
		return "", fmt.Errorf("render: encode json panel: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
