// Command orderctl uploads an order CSV to the analysis service and prints
// the result in the terminal.
//
//	orderctl analyze -file orders.csv [-endpoint URL] [-json]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"order-insights/internal/client"
	"order-insights/internal/config"
	"order-insights/internal/observability"
	"order-insights/internal/render"
)

const usage = `usage: orderctl analyze -file orders.csv [-endpoint URL] [-json] [-no-progress]`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "analyze" {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "order CSV to analyze")
	endpoint := fs.String("endpoint", cfg.Client.Endpoint, "analysis endpoint")
	timeout := fs.Duration("timeout", cfg.Client.Timeout, "request timeout")
	showJSON := fs.Bool("json", false, "print the JSON output panel")
	noProgress := fs.Bool("no-progress", false, "hide the upload progress bar")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	logger := observability.NewLoggerTo(stderr, cfg.Logger)

	content, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	var analyzer client.Analyzer = client.New(*endpoint,
		client.WithTimeout(*timeout),
		client.WithLogger(logger),
	)
	if !*noProgress {
		analyzer = &progressAnalyzer{next: analyzer, size: int64(len(content)), out: stderr}
	}

	controller := client.NewController(analyzer, newTerminalSurface(stdout))
	defer controller.Close()

	if err := controller.SelectFile(filepath.Base(*file), content); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if err := controller.Submit(ctx); err != nil {
		view := controller.View()
		msg := view.ErrorMessage
		if msg == "" || errors.Is(err, client.ErrNoFile) {
			msg = err.Error()
		}
		fmt.Fprintf(stderr, "error: %s\n", msg)
		logger.Debug("analysis failed", "error", err)
		return 1
	}

	view := controller.View()
	printSummary(stdout, view.Result)

	if *showJSON && controller.ToggleJSONVisibility() {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, controller.View().Result.JSONPanel)
	}
	return 0
}

func printSummary(w io.Writer, v render.View) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total revenue:     %s\n", v.Summary.TotalRevenue)
	fmt.Fprintf(w, "Best-selling SKU:  %s (%s)\n", v.Summary.BestSKU, v.Summary.BestSKUQuantity)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SKU\tQuantity\tRevenue\t")
	for i, sku := range v.Quantity.Labels {
		fmt.Fprintf(tw, "%s\t%.0f\t%s\t\n", sku, v.Quantity.Values[i], render.FormatRevenue(v.Revenue.Values[i]))
	}
	tw.Flush()
}
