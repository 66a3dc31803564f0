package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"order-insights/internal/client"
	"order-insights/internal/models"
	"order-insights/internal/render"
)

const barWidth = 40

// terminalSurface draws charts as horizontal bars of block characters.
type terminalSurface struct {
	w io.Writer
}

func newTerminalSurface(w io.Writer) *terminalSurface {
	return &terminalSurface{w: w}
}

type terminalChart struct{}

func (terminalChart) Destroy() {}

func (s *terminalSurface) Draw(chart render.Chart) (client.ChartInstance, error) {
	var maxValue float64
	width := 0
	for i, v := range chart.Values {
		maxValue = max(maxValue, v)
		width = max(width, len(chart.Labels[i]))
	}

	fmt.Fprintf(s.w, "\n%s (%s)\n", chart.Label, chart.Kind)
	for i, v := range chart.Values {
		n := 0
		if maxValue > 0 {
			n = int(v / maxValue * barWidth)
		}
		value := render.FormatRevenue(v)
		if chart.Kind == render.ChartBar {
			value = fmt.Sprintf("%.0f", v)
		}
		fmt.Fprintf(s.w, "  %-*s %s %s\n", width, chart.Labels[i], strings.Repeat("█", n), value)
	}
	return terminalChart{}, nil
}

// progressAnalyzer reports upload progress while the request body is sent.
type progressAnalyzer struct {
	next client.Analyzer
	size int64
	out  io.Writer
}

func (p *progressAnalyzer) Analyze(ctx context.Context, filename string, content io.Reader) (*models.AnalysisResult, error) {
	bar := progressbar.NewOptions64(p.size,
		progressbar.OptionSetDescription("uploading "+filename),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
	)
	defer bar.Close()

	return p.next.Analyze(ctx, filename, io.TeeReader(content, bar))
}
