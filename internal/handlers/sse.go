package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"order-insights/internal/errors"
	"order-insights/internal/observability"
	"order-insights/internal/render"
	"order-insights/internal/services"
	"order-insights/internal/ui/templates"
)

type SSEHandlers struct {
	analytics      *services.Analytics
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger, maxUploadBytes int64) *SSEHandlers {
	return &SSEHandlers{
		analytics:      analytics,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

type resultSignals struct {
	HasResult bool `json:"hasResult"`
	HasError  bool `json:"hasError"`
}

// HandleAnalyze serves the dashboard form. The upload is read in full before
// the SSE stream starts; once headers are sent the request body is gone.
func (h *SSEHandlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFrom(r.Context(), h.logger)

	up, appErr := readUpload(w, r, h.maxUploadBytes)

	var view render.View
	if appErr == nil {
		view, appErr = h.analyzeView(r, up)
	}

	sse := datastar.NewSSE(w, r)

	if appErr != nil {
		logger.Warn("dashboard analysis failed", "error_code", appErr.Code, "error", appErr)
		h.patchFailure(sse, logger, appErr.Message)
		return
	}

	charts, err := json.Marshal([]render.Chart{view.Quantity, view.Revenue})
	if err != nil {
		logger.Error("marshal chart data", "error", err)
		h.patchFailure(sse, logger, errors.MessageInternal)
		return
	}

	if err := sse.PatchElementTempl(templates.ErrorAlert("")); err != nil {
		logger.Error("patch error alert", "error", err)
		return
	}
	if err := sse.PatchElementTempl(templates.Results(view)); err != nil {
		logger.Error("patch results", "error", err)
		return
	}
	if err := sse.MarshalAndPatchSignals(resultSignals{HasResult: true}); err != nil {
		logger.Error("patch signals", "error", err)
		return
	}
	if err := sse.ExecuteScript("window.renderOrderCharts(" + string(charts) + ")"); err != nil {
		logger.Error("execute chart script", "error", err)
	}
}

// patchFailure hides any previous result and shows message in the alert.
func (h *SSEHandlers) patchFailure(sse *datastar.ServerSentEventGenerator, logger *slog.Logger, message string) {
	if err := sse.ExecuteScript("window.clearOrderCharts && window.clearOrderCharts()"); err != nil {
		logger.Error("execute chart cleanup", "error", err)
		return
	}
	if err := sse.PatchElementTempl(templates.EmptyResults()); err != nil {
		logger.Error("patch results", "error", err)
		return
	}
	if err := sse.MarshalAndPatchSignals(resultSignals{HasResult: false, HasError: true}); err != nil {
		logger.Error("patch signals", "error", err)
		return
	}
	if err := sse.PatchElementTempl(templates.ErrorAlert(message)); err != nil {
		logger.Error("patch error alert", "error", err)
	}
}

func (h *SSEHandlers) analyzeView(r *http.Request, up *upload) (render.View, *errors.AppError) {
	result, appErr := analyzeUpload(r.Context(), h.analytics, up)
	if appErr != nil {
		return render.View{}, appErr
	}
	view, err := render.Project(result)
	if err != nil {
		return render.View{}, errors.InternalWrap(err, errors.MessageInternal)
	}
	return view, nil
}
