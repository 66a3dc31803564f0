package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"order-insights/internal/services"
)

const testUploadLimit = 1 << 20

const validCSV = "sku,quantity,price\nA,2,10.00\nB,5,1.50\nA,1,10.00\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAnalytics() *services.Analytics {
	return services.NewAnalytics(services.Options{
		Workers:   2,
		BatchSize: 2,
		Cache:     services.NewMemoryCache(time.Minute, 16),
		Logger:    testLogger(),
	})
}

func multipartRequest(t *testing.T, target, field, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
