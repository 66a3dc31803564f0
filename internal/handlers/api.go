package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"order-insights/internal/errors"
	"order-insights/internal/observability"
	"order-insights/internal/services"
)

const version = "1.0.0"

type APIHandlers struct {
	analytics      *services.Analytics
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, maxUploadBytes int64) *APIHandlers {
	return &APIHandlers{
		analytics:      analytics,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// HandleAnalyze aggregates one uploaded order CSV
// @Summary Analyze an order CSV
// @Description Returns total revenue, the best-selling SKU and per-SKU quantity and revenue. SKU maps keep the order in which SKUs first appear in the file.
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Order CSV with sku, quantity and price columns"
// @Success 200 {object} models.AnalysisResult
// @Header 200 {string} X-Analysis-ID "Identifier of this analysis"
// @Failure 400 {object} errors.ErrorResponse "Missing file, wrong extension or invalid rows"
// @Failure 413 {object} errors.ErrorResponse "Upload too large"
// @Failure 429 {object} errors.ErrorResponse "Rate limited"
// @Failure 500 {object} errors.ErrorResponse "Internal server error"
// @Router /analyze [post]
func (h *APIHandlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	analysisID := uuid.NewString()
	logger := observability.LoggerFrom(r.Context(), h.logger).With("analysis_id", analysisID)

	up, appErr := readUpload(w, r, h.maxUploadBytes)
	if appErr != nil {
		errors.WriteError(w, logger, appErr, requestID)
		return
	}

	logger.Info("analysis requested", "filename", up.filename, "bytes", len(up.data))

	result, appErr := analyzeUpload(r.Context(), h.analytics, up)
	if appErr != nil {
		errors.WriteError(w, logger, appErr, requestID)
		return
	}

	w.Header().Set("X-Analysis-ID", analysisID)
	w.Header().Set("Cache-Control", "no-store")
	if err := errors.WriteJSON(w, http.StatusOK, result); err != nil {
		logger.Error("failed to encode analysis result", "error", err)
	}
}

// @Summary Health check
// @Tags operations
// @Produce json
// @Success 200 {object} errors.SuccessResponse
// @Router /health [get]
func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	}

	errors.WriteSuccess(w, healthData)
}

// HandleStats reports analysis counters and cache settings
// @Summary Analysis counters
// @Tags operations
// @Produce json
// @Success 200 {object} errors.SuccessResponse
// @Router /admin/stats [get]
func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
