package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"order-insights/internal/handlers"
	"order-insights/internal/services"
)

const ordersCSV = "sku,quantity,price\nA,5,10.00\nB,12,2.50\nC,7,1.00\n"

func newAnalysisServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handlers.NewAPIHandlers(services.NewAnalytics(services.Options{Logger: logger}), logger, 1<<20)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", h.HandleAnalyze)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Analyze(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := newAnalysisServer(t)
	path := writeFile(t, "orders.csv", ordersCSV)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"analyze", "-file", path, "-endpoint", srv.URL + "/analyze", "-json"}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"Total revenue:     87.00",
		"Best-selling SKU:  B (12 units sold)",
		"Quantity (bar)",
		"Revenue (doughnut)",
		`"total_revenue": 87`,
		`"sku": "B"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q\n%s", want, out)
		}
	}

	a, b, c := strings.Index(out, "\n  A "), strings.Index(out, "\n  B "), strings.Index(out, "\n  C ")
	if !(a < b && b < c) {
		t.Errorf("SKUs should print in file order:\n%s", out)
	}
	if !strings.Contains(stderr.String(), "uploading orders.csv") {
		t.Errorf("expected progress output, got %q", stderr.String())
	}
}

func TestRun_AnalyzeWithoutJSON(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := newAnalysisServer(t)
	path := writeFile(t, "orders.csv", ordersCSV)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"analyze", "-file", path, "-endpoint", srv.URL + "/analyze", "-no-progress"}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if out := stdout.String(); strings.Contains(out, `"total_revenue"`) {
		t.Errorf("JSON should only print with -json:\n%s", out)
	}
	if !strings.Contains(stdout.String(), "Total revenue:     87.00") {
		t.Errorf("summary missing:\n%s", stdout.String())
	}
}

func TestRun_ServiceError(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := newAnalysisServer(t)
	path := writeFile(t, "orders.csv", "sku,quantity,price\nA,1,-3\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"analyze", "-no-progress", "-file", path, "-endpoint", srv.URL + "/analyze"}, &stdout, &stderr)

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if got := stderr.String(); !strings.Contains(got, "error: Row 2: negative price '-3' is not allowed.") {
		t.Errorf("stderr = %q", got)
	}
	if strings.Contains(stdout.String(), "Total revenue") {
		t.Error("no summary should be printed on failure")
	}
}

func TestRun_TransportError(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := newAnalysisServer(t)
	url := srv.URL
	srv.Close()
	path := writeFile(t, "orders.csv", ordersCSV)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"analyze", "-no-progress", "-file", path, "-endpoint", url + "/analyze"}, &stdout, &stderr)

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Failed to connect to the server. Please try again.") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_Usage(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := [][]string{
		nil,
		{"report"},
		{"analyze"},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), args, &stdout, &stderr); code != 2 {
			t.Errorf("run(%v) = %d, want 2", args, code)
		}
	}
}

func TestRun_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"analyze", "-file", "nope.csv"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
