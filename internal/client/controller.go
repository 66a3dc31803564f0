package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"order-insights/internal/models"
	"order-insights/internal/render"
)

const (
	LabelIdle       = "Analyze Orders"
	LabelSubmitting = "Analyzing..."
	LabelShowJSON   = "Show JSON Output"
	LabelHideJSON   = "Hide JSON Output"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateRendering
	StateShowingError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateRendering:
		return "rendering-success"
	case StateShowingError:
		return "showing-error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Analyzer is the analysis endpoint as seen by the controller. *Client
// implements it.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, content io.Reader) (*models.AnalysisResult, error)
}

// Surface draws charts. Every instance it returns is destroyed by the
// controller before the next render builds new ones.
type Surface interface {
	Draw(chart render.Chart) (ChartInstance, error)
}

type ChartInstance interface {
	Destroy()
}

// ViewState is a snapshot of everything the user sees.
type ViewState struct {
	State           State
	FileName        string
	SubmitEnabled   bool
	SubmitLabel     string
	ErrorVisible    bool
	ErrorMessage    string
	ResultVisible   bool
	Result          render.View
	JSONVisible     bool
	JSONToggleLabel string
}

type selectedFile struct {
	name    string
	content []byte
}

type ControllerOption func(*Controller)

// WithTransitionHook registers fn to observe state changes. fn runs with the
// controller locked and must not call back into it.
func WithTransitionHook(fn func(from, to State)) ControllerOption {
	return func(c *Controller) {
		c.onTransition = fn
	}
}

// Controller owns the submit state machine
//
//	idle -> submitting -> {rendering-success | showing-error} -> idle
//
// and the chart instances of the current result. Only one submission can be
// in flight; a second Submit during it fails with ErrSubmitInFlight.
type Controller struct {
	mu           sync.Mutex
	analyzer     Analyzer
	surface      Surface
	file         *selectedFile
	state        State
	view         ViewState
	charts       []ChartInstance
	onTransition func(from, to State)
}

func NewController(analyzer Analyzer, surface Surface, opts ...ControllerOption) *Controller {
	c := &Controller{
		analyzer: analyzer,
		surface:  surface,
		state:    StateIdle,
		view: ViewState{
			State:           StateIdle,
			SubmitLabel:     LabelIdle,
			JSONToggleLabel: LabelShowJSON,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectFile records the file to submit, enables submission and clears any
// shown error. Content is not inspected; the service validates it.
func (c *Controller) SelectFile(name string, content []byte) error {
	if name == "" {
		return ErrNoFile
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.file = &selectedFile{name: name, content: content}
	c.view.FileName = name
	if c.state != StateSubmitting {
		c.view.SubmitEnabled = true
	}
	c.hideErrorLocked()
	return nil
}

// Submit posts the selected file and renders the outcome. Whatever happens,
// the controller is idle with submission re-enabled when it returns.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	if c.file == nil {
		c.mu.Unlock()
		return ErrNoFile
	}
	file := *c.file
	c.transitionLocked(StateSubmitting)
	c.view.SubmitEnabled = false
	c.view.SubmitLabel = LabelSubmitting
	c.hideErrorLocked()
	c.mu.Unlock()

	result, err := c.analyzer.Analyze(ctx, file.name, bytes.NewReader(file.content))

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.finishLocked()

	if err != nil {
		c.transitionLocked(StateShowingError)
		c.showErrorLocked(UserMessage(err))
		return err
	}

	c.transitionLocked(StateRendering)
	if err := c.renderLocked(result); err != nil {
		c.transitionLocked(StateShowingError)
		c.showErrorLocked(MessageUnexpected)
		return err
	}
	return nil
}

// Render replaces whatever is displayed with result.
func (c *Controller) Render(result *models.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.renderLocked(result); err != nil {
		c.showErrorLocked(MessageUnexpected)
		return err
	}
	c.hideErrorLocked()
	return nil
}

// ToggleJSONVisibility flips the JSON panel and returns the new visibility.
// It works whether or not a result is shown.
func (c *Controller) ToggleJSONVisibility() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.JSONVisible = !c.view.JSONVisible
	if c.view.JSONVisible {
		c.view.JSONToggleLabel = LabelHideJSON
	} else {
		c.view.JSONToggleLabel = LabelShowJSON
	}
	return c.view.JSONVisible
}

func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.view
	v.Result = cloneView(c.view.Result)
	return v
}

// Close destroys any live chart instances.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseChartsLocked()
}

func (c *Controller) renderLocked(result *models.AnalysisResult) error {
	view, err := render.Project(result)
	if err != nil {
		return err
	}

	c.releaseChartsLocked()
	if c.surface != nil {
		for _, chart := range []render.Chart{view.Quantity, view.Revenue} {
			inst, err := c.surface.Draw(chart)
			if err != nil {
				c.releaseChartsLocked()
				return fmt.Errorf("draw %s chart: %w", chart.ID, err)
			}
			c.charts = append(c.charts, inst)
		}
	}

	c.view.Result = view
	c.view.ResultVisible = true
	return nil
}

func (c *Controller) releaseChartsLocked() {
	for _, chart := range c.charts {
		chart.Destroy()
	}
	c.charts = nil
}

func (c *Controller) showErrorLocked(message string) {
	c.view.ErrorMessage = message
	c.view.ErrorVisible = true
	c.view.ResultVisible = false
	c.view.Result = render.View{}
	c.releaseChartsLocked()
}

func (c *Controller) hideErrorLocked() {
	c.view.ErrorVisible = false
	c.view.ErrorMessage = ""
}

func (c *Controller) finishLocked() {
	c.transitionLocked(StateIdle)
	c.view.SubmitEnabled = c.file != nil
	c.view.SubmitLabel = LabelIdle
}

func (c *Controller) transitionLocked(to State) {
	from := c.state
	c.state = to
	c.view.State = to
	if c.onTransition != nil && from != to {
		c.onTransition(from, to)
	}
}

func cloneView(v render.View) render.View {
	v.Quantity = cloneChart(v.Quantity)
	v.Revenue = cloneChart(v.Revenue)
	return v
}

func cloneChart(ch render.Chart) render.Chart {
	ch.Labels = slices.Clone(ch.Labels)
	ch.Values = slices.Clone(ch.Values)
	ch.Colors = slices.Clone(ch.Colors)
	return ch
}
