// Package templates holds the dashboard page and the fragments patched into it
// over SSE. Components satisfy templ.Component so they can be served with
// templ.Handler and sent with datastar's PatchElementTempl.
package templates

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"order-insights/internal/render"
)

//go:embed *.html
var files embed.FS

var pages = template.Must(template.New("").ParseFS(files, "*.html"))

// Element IDs shared between the page and the SSE fragments.
const (
	ResultsID = "results"
	AlertID   = "error-alert"
)

type dashboardData struct {
	ResultsID string
	Alert     alertData
}

type resultsData struct {
	ID   string
	View render.View
}

type alertData struct {
	ID      string
	Message string
}

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

// Dashboard is the full upload page.
func Dashboard() templ.Component {
	return component("dashboard", dashboardData{
		ResultsID: ResultsID,
		Alert:     alertData{ID: AlertID},
	})
}

// Results renders the summary, chart canvases and JSON panel of view.
func Results(view render.View) templ.Component {
	return component("results", resultsData{ID: ResultsID, View: view})
}

// EmptyResults replaces the result panel with an empty, hidden one.
func EmptyResults() templ.Component {
	return component("results", resultsData{ID: ResultsID})
}

// ErrorAlert shows message, or hides the alert when message is empty.
func ErrorAlert(message string) templ.Component {
	return component("alert", alertData{ID: AlertID, Message: message})
}
