package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"order-insights/internal/models"
	"order-insights/internal/observability"
)

const (
	defaultBatchSize = 1000
	defaultWorkers   = 4
	cacheVersion     = "v1"

	// maxPriceScale bounds the fraction digits of a price.
	maxPriceScale = 64
	// maxFloatDigits keeps every amount below 1e308.
	maxFloatDigits = 308
)

var requiredColumns = []string{"price", "quantity", "sku"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ValidationError reports a problem with the uploaded file. Message is safe to
// show to the user as is.
type ValidationError struct {
	Row     int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidf(row int, format string, args ...any) *ValidationError {
	return &ValidationError{Row: row, Message: fmt.Sprintf(format, args...)}
}

type Options struct {
	Workers   int
	BatchSize int
	Cache     ResultCache
	Logger    *slog.Logger
}

// Analytics turns order CSV files into analysis results. It holds no state
// between calls apart from the optional result cache and counters.
type Analytics struct {
	workers   int
	batchSize int
	cache     ResultCache
	logger    *slog.Logger

	analysesRun   atomic.Int64
	rowsProcessed atomic.Int64
	cacheHits     atomic.Int64
	failures      atomic.Int64
	lastAnalyzed  atomic.Int64
}

func NewAnalytics(opts Options) *Analytics {
	a := &Analytics{
		workers:   opts.Workers,
		batchSize: opts.BatchSize,
		cache:     opts.Cache,
		logger:    opts.Logger,
	}
	if a.workers <= 0 {
		a.workers = defaultWorkers
	}
	if a.batchSize <= 0 {
		a.batchSize = defaultBatchSize
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Analyze reads an order CSV from r and aggregates it. Problems with the file
// itself are returned as *ValidationError.
func (a *Analytics) Analyze(ctx context.Context, r io.Reader) (*models.AnalysisResult, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.analyze")
	defer span.FinishAndLog(a.logger)

	logger := observability.LoggerFrom(ctx, a.logger)

	data, err := io.ReadAll(r)
	if err != nil {
		span.SetError(err)
		a.failures.Add(1)
		return nil, fmt.Errorf("read upload: %w", err)
	}
	span.SetTag("bytes", strconv.Itoa(len(data)))

	key := cacheKey(data)
	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("result cache lookup failed", "error", err)
		} else if ok {
			a.cacheHits.Add(1)
			a.analysesRun.Add(1)
			span.SetTag("cache", "hit")
			return cached, nil
		}
	}

	start := time.Now()
	result, rows, err := a.analyze(ctx, data)
	if err != nil {
		span.SetError(err)
		a.failures.Add(1)
		return nil, err
	}

	a.analysesRun.Add(1)
	a.rowsProcessed.Add(int64(rows))
	a.lastAnalyzed.Store(time.Now().UnixNano())
	span.SetTag("rows", strconv.Itoa(rows))
	span.SetTag("skus", strconv.Itoa(result.SKUQuantities.Len()))

	logger.Info("orders analyzed",
		"rows", rows,
		"skus", result.SKUQuantities.Len(),
		"best_selling_sku", result.BestSellingSKU.SKU,
		"duration", time.Since(start),
	)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, result); err != nil {
			logger.Warn("result cache store failed", "error", err)
		}
	}

	return result, nil
}

func (a *Analytics) analyze(ctx context.Context, data []byte) (*models.AnalysisResult, int, error) {
	if !utf8.Valid(data) {
		return nil, 0, invalidf(0, "File is not valid UTF-8 text.")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, invalidf(0, "CSV file is empty or has no header row.")
	}
	if err != nil {
		return nil, 0, invalidf(0, "Malformed CSV: %v.", err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, invalidf(len(records)+2, "Malformed CSV: %v.", err)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, 0, invalidf(0, "CSV file contains a header but no data rows.")
	}

	acc, err := a.aggregateBatches(ctx, records, columns)
	if err != nil {
		return nil, 0, err
	}

	return acc.result(), len(records), nil
}

// aggregateBatches parses records in parallel batches, then accumulates the
// parsed rows in file order. SKU order and the reported bad row therefore do
// not depend on scheduling.
func (a *Analytics) aggregateBatches(ctx context.Context, records [][]string, columns columnIndex) (*skuAccumulator, error) {
	batchCount := (len(records) + a.batchSize - 1) / a.batchSize
	parsed := make([][]models.OrderRow, batchCount)
	rowErrs := make([]error, batchCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for b := 0; b < batchCount; b++ {
		lo := b * a.batchSize
		hi := min(lo+a.batchSize, len(records))

		g.Go(func() error {
			rows := make([]models.OrderRow, 0, hi-lo)
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				row, err := parseRow(records[i], columns, i+2)
				if err != nil {
					rowErrs[b] = err
					return nil
				}
				rows = append(rows, row)
			}
			parsed[b] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newSKUAccumulator()
	for b := range parsed {
		if rowErrs[b] != nil {
			return nil, rowErrs[b]
		}
		for _, row := range parsed[b] {
			if err := total.add(row); err != nil {
				return nil, err
			}
		}
	}
	return total, nil
}

type columnIndex struct {
	sku, quantity, price int
}

func resolveColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		cleaned := strings.ToLower(strings.TrimSpace(name))
		if cleaned == "" {
			continue
		}
		positions[cleaned] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return columnIndex{}, invalidf(0, "Missing required columns: %s. Expected: %s.",
			strings.Join(missing, ", "), strings.Join(requiredColumns, ", "))
	}

	return columnIndex{
		sku:      positions["sku"],
		quantity: positions["quantity"],
		price:    positions["price"],
	}, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseRow(record []string, columns columnIndex, rowNumber int) (models.OrderRow, error) {
	sku := field(record, columns.sku)
	if sku == "" {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: missing or empty 'sku' value.", rowNumber)
	}

	rawQty := field(record, columns.quantity)
	if rawQty == "" {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: missing 'quantity' value.", rowNumber)
	}
	quantity, err := strconv.Atoi(rawQty)
	if err != nil {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: invalid quantity '%s' (must be a whole number).", rowNumber, rawQty)
	}
	if quantity < 0 {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: negative quantity '%d' is not allowed.", rowNumber, quantity)
	}

	rawPrice := field(record, columns.price)
	if rawPrice == "" {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: missing 'price' value.", rowNumber)
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: invalid price '%s' (must be a number).", rowNumber, rawPrice)
	}
	if price.IsNegative() {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: negative price '%s' is not allowed.", rowNumber, rawPrice)
	}
	if exp := price.Exponent(); exp < -maxPriceScale || exp > maxFloatDigits || exceedsFloat64(price) {
		return models.OrderRow{}, invalidf(rowNumber, "Row %d: price '%s' is out of range.", rowNumber, rawPrice)
	}

	return models.OrderRow{
		Row:      rowNumber,
		SKU:      sku,
		Quantity: quantity,
		Price:    price,
	}, nil
}

// skuAccumulator sums quantities and revenue per SKU in first-seen order.
type skuAccumulator struct {
	order    []string
	quantity map[string]int
	revenue  map[string]decimal.Decimal
	total    decimal.Decimal
}

func newSKUAccumulator() *skuAccumulator {
	return &skuAccumulator{
		quantity: make(map[string]int),
		revenue:  make(map[string]decimal.Decimal),
		total:    decimal.Zero,
	}
}

// add folds row into the totals. Quantity sums are checked against int
// overflow and revenue against the float64 range of the result.
func (acc *skuAccumulator) add(row models.OrderRow) error {
	current, seen := acc.quantity[row.SKU]
	if row.Quantity > math.MaxInt-current {
		return invalidf(row.Row, "Row %d: quantity total for SKU '%s' is too large.", row.Row, row.SKU)
	}

	subtotal := row.Subtotal()
	total := acc.total.Add(subtotal)
	if exceedsFloat64(total) {
		return invalidf(row.Row, "Row %d: revenue total is too large.", row.Row)
	}

	if !seen {
		acc.order = append(acc.order, row.SKU)
		acc.revenue[row.SKU] = decimal.Zero
	}
	acc.quantity[row.SKU] = current + row.Quantity
	acc.revenue[row.SKU] = acc.revenue[row.SKU].Add(subtotal)
	acc.total = total
	return nil
}

// exceedsFloat64 reports whether d has more integer digits than a finite
// float64 can hold. It only inspects the digit count and exponent, so it stays
// cheap for inputs like "1e30000000".
func exceedsFloat64(d decimal.Decimal) bool {
	if d.IsZero() {
		return false
	}
	return int64(d.NumDigits())+int64(d.Exponent()) > maxFloatDigits
}

// result converts the accumulator into the wire model. Ties for best seller
// go to the SKU seen first.
func (acc *skuAccumulator) result() *models.AnalysisResult {
	quantities := models.NewSKUTable[int]()
	revenue := models.NewSKUTable[float64]()

	var best models.BestSeller
	for i, sku := range acc.order {
		qty := acc.quantity[sku]
		quantities.Set(sku, qty)
		revenue.Set(sku, acc.revenue[sku].InexactFloat64())

		if i == 0 || qty > best.TotalQuantity {
			best = models.BestSeller{SKU: sku, TotalQuantity: qty}
		}
	}

	return &models.AnalysisResult{
		TotalRevenue:   acc.total.InexactFloat64(),
		BestSellingSKU: best,
		SKUQuantities:  quantities,
		SKURevenue:     revenue,
	}
}

func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return cacheVersion + ":" + hex.EncodeToString(sum[:])
}

// IsValidation reports whether err describes a problem with the uploaded file.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Stats is used by the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	stats := map[string]any{
		"analyses_run":   a.analysesRun.Load(),
		"rows_processed": a.rowsProcessed.Load(),
		"cache_hits":     a.cacheHits.Load(),
		"failures":       a.failures.Load(),
		"workers":        a.workers,
		"batch_size":     a.batchSize,
		"cache_backend":  "none",
	}
	if a.cache != nil {
		stats["cache_backend"] = a.cache.Name()
	}
	if last := a.lastAnalyzed.Load(); last > 0 {
		stats["last_analyzed"] = time.Unix(0, last).UTC()
	}
	return stats
}
