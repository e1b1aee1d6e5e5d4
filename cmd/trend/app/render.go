package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	dpi            = 120.0
	fontSize       = 10.0
	tickMarkLength = 5
	pixelsPerLabel = 140.0

	// Default layout sizes in pixels
	defaultPlotWidth    = 1000
	defaultPanelHeight  = 140
	defaultPanelGap     = 24
	defaultTopBorder    = 30
	defaultLeftBorder   = 70
	defaultBottomBorder = 70
	defaultRightBorder  = 30

	defaultTimeFormat     = "15:04"
	defaultDatetimeFormat = time.DateTime
)

var (
	normalBandColor = color.RGBA{R: 0xe4, G: 0xf2, B: 0xe4, A: 0xff}
	frameColor      = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// BorderConfig defines the sizes of white space around the chart
type BorderConfig struct {
	Top    int // Space above the first panel
	Left   int // Space for value scales
	Bottom int // Space for time scale and information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for trend visualization
type RenderConfig struct {
	// Time display configuration
	TimeFormat     string         // Format string for time display (e.g. "15:04")
	DatetimeFormat string         // Format string for date/time display
	Location       *time.Location // Timezone for time display

	// Visual configuration
	FontPath    string  // Path to a TTF font file
	FontSize    float64 // Font size in points
	PlotWidth   int     // Width of the plot area in pixels
	PanelHeight int     // Height of each vital panel
	PanelGap    int     // Vertical gap between panels

	// Border configuration
	BorderConfig BorderConfig
}

// TrendRenderer draws per-vital trend panels for one session
type TrendRenderer struct {
	config RenderConfig
}

// NewTrendRenderer creates a new trend renderer with the given configuration
func NewTrendRenderer(config RenderConfig) (*TrendRenderer, error) {
	// Set defaults for zero values
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.PlotWidth == 0 {
		config.PlotWidth = defaultPlotWidth
	}
	if config.PanelHeight == 0 {
		config.PanelHeight = defaultPanelHeight
	}
	if config.PanelGap == 0 {
		config.PanelGap = defaultPanelGap
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &TrendRenderer{config: config}, nil
}

// Render creates an image of the trend data with annotations
func (r *TrendRenderer) Render(td *TrendData) (*image.RGBA, error) {
	panels := len(td.Panels)
	fullWidth := r.config.PlotWidth + r.config.BorderConfig.Left + r.config.BorderConfig.Right
	fullHeight := r.config.BorderConfig.Top +
		panels*r.config.PanelHeight +
		(panels-1)*r.config.PanelGap +
		r.config.BorderConfig.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ann, err := newAnnotator(annotatorConfig{
		FontPath:       r.config.FontPath,
		TimeFormat:     r.config.TimeFormat,
		DatetimeFormat: r.config.DatetimeFormat,
		Location:       r.config.Location,
		FontSize:       r.config.FontSize,
		Borders:        r.config.BorderConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	ann.context.SetClip(img.Bounds())
	ann.context.SetDst(img)

	for i := range td.Panels {
		area := r.panelArea(i)
		panel := &td.Panels[i]

		r.renderPanel(img, area, panel, td)
		if err := ann.annotatePanel(img, area, panel); err != nil {
			return nil, fmt.Errorf("annotating panel '%s': %w", panel.Title, err)
		}
	}

	lastArea := r.panelArea(panels - 1)
	if err := ann.drawTimeScale(img, lastArea, td); err != nil {
		return nil, fmt.Errorf("drawing time scale: %w", err)
	}
	if err := ann.drawInfoBar(img, td); err != nil {
		return nil, fmt.Errorf("drawing info bar: %w", err)
	}

	return img, nil
}

// panelArea returns the plot rectangle of the i-th panel
func (r *TrendRenderer) panelArea(i int) image.Rectangle {
	top := r.config.BorderConfig.Top + i*(r.config.PanelHeight+r.config.PanelGap)
	return image.Rect(
		r.config.BorderConfig.Left,
		top,
		r.config.BorderConfig.Left+r.config.PlotWidth,
		top+r.config.PanelHeight,
	)
}

// renderPanel draws the normal band, frame and series lines of one panel
func (r *TrendRenderer) renderPanel(img *image.RGBA, area image.Rectangle, panel *Panel, td *TrendData) {
	min, max := panel.Bounds()

	// Shade the clinically normal band
	bandTop := valueToY(panel.NormalMax, min, max, area)
	bandBottom := valueToY(panel.NormalMin, min, max, area)
	band := image.Rect(area.Min.X, bandTop, area.Max.X, bandBottom)
	draw.Draw(img, band.Intersect(area), image.NewUniform(normalBandColor), image.Point{}, draw.Src)

	drawFrame(img, area)

	for _, series := range panel.Series {
		r.renderSeries(img, area, series, min, max, td)
	}
}

// renderSeries draws one polyline, breaking it where a sample is missing
func (r *TrendRenderer) renderSeries(img *image.RGBA, area image.Rectangle, series Series, min, max float64, td *TrendData) {
	prevX, prevY := -1, -1

	for _, pt := range series.Samples {
		if !pt.OK {
			prevX, prevY = -1, -1
			continue
		}

		x := timeToX(pt.At, td.Start, td.End, area)
		y := valueToY(pt.Value, min, max, area)

		if prevX >= 0 {
			drawLine(img, prevX, prevY, x, y, series.Color)
		} else {
			img.Set(x, y, series.Color)
		}
		prevX, prevY = x, y
	}
}

// timeToX maps a timestamp onto the panel's horizontal axis
func timeToX(at, start, end time.Time, area image.Rectangle) int {
	span := end.Sub(start)
	if span <= 0 {
		return area.Min.X
	}
	ratio := float64(at.Sub(start)) / float64(span)
	return area.Min.X + int(ratio*float64(area.Dx()-1))
}

// valueToY maps a value onto the panel's vertical axis, larger values up
func valueToY(v, min, max float64, area image.Rectangle) int {
	ratio := (v - min) / (max - min)
	return area.Max.Y - 1 - int(ratio*float64(area.Dy()-1))
}

func drawFrame(img *image.RGBA, area image.Rectangle) {
	for x := area.Min.X; x < area.Max.X; x++ {
		img.Set(x, area.Min.Y, frameColor)
		img.Set(x, area.Max.Y-1, frameColor)
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		img.Set(area.Min.X, y, frameColor)
		img.Set(area.Max.X-1, y, frameColor)
	}
}

// drawLine draws a straight segment between two points
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Internal annotator implementation
type annotatorConfig struct {
	FontPath       string
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	fontBytes, err := os.ReadFile(config.FontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

// annotatePanel draws the title and value scale of one panel
func (a *annotator) annotatePanel(img *image.RGBA, area image.Rectangle, panel *Panel) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	title := fmt.Sprintf("%s (%s)", panel.Title, panel.Unit)
	if len(panel.Series) > 1 {
		labels := make([]string, len(panel.Series))
		for i, s := range panel.Series {
			labels[i] = s.Label
		}
		title = fmt.Sprintf("%s: %s", title, strings.Join(labels, " / "))
	}

	pt := freetype.Pt(area.Min.X, area.Min.Y-4)
	if _, err := a.context.DrawString(title, pt); err != nil {
		return fmt.Errorf("drawing title: %w", err)
	}

	min, max := panel.Bounds()
	valueStep := calculateNiceValueStep(max-min, area.Dy())
	startValue := math.Ceil(min/valueStep) * valueStep

	for v := startValue; v <= max; v += valueStep {
		y := valueToY(v, min, max, area)

		// Draw tick mark
		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := formatValue(v)
		width := font.MeasureString(a.fontFace, label)
		textY := y + fontHeight/2 - metrics.Descent.Round()
		pt := freetype.Pt(area.Min.X-tickMarkLength-3-width.Round(), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing value label: %w", err)
		}
	}
	return nil
}

// drawTimeScale draws the shared time axis under the last panel
func (a *annotator) drawTimeScale(img *image.RGBA, area image.Rectangle, td *TrendData) error {
	duration := td.End.Sub(td.Start)
	timeStep := calculateNiceTimeStep(duration, area.Dx())

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := area.Max.Y + tickMarkLength + fontHeight

	start := td.Start.In(a.config.Location).Truncate(timeStep)
	if start.Before(td.Start) {
		start = start.Add(timeStep)
	}

	for t := start; !t.After(td.End); t = t.Add(timeStep) {
		x := timeToX(t, td.Start, td.End, area)

		// Draw tick mark
		for y := area.Max.Y; y < area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}

		label := t.In(a.config.Location).Format(a.config.TimeFormat)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

// drawInfoBar draws the session summary at the bottom of the image
func (a *annotator) drawInfoBar(img *image.RGBA, td *TrendData) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Session: %s", td.SessionID))
	if td.DeviceID != "" {
		sb.WriteString(fmt.Sprintf("; Device: %s", td.DeviceID))
	}
	sb.WriteString(fmt.Sprintf("; Time: %s - %s",
		td.Start.In(a.config.Location).Format(a.config.DatetimeFormat),
		td.End.In(a.config.Location).Format(a.config.DatetimeFormat)))
	sb.WriteString(fmt.Sprintf("; %s over %s",
		humanize.Comma(int64(td.Count))+" readings",
		humanize.RelTime(td.Start, td.End, "", "")))

	metrics := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - metrics.Descent.Round() - 6

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}

// Helper functions

func calculateNiceValueStep(range_ float64, height int) float64 {
	// Standard step sizes across vital scales
	steps := []float64{0.1, 0.2, 0.5, 1, 2, 5, 10, 20, 25, 50, 100}

	desiredSteps := float64(height) / 40.0
	targetStep := range_ / desiredSteps

	for _, step := range steps {
		if step >= targetStep {
			if range_/step >= 2 {
				return step
			}
			break
		}
	}

	return range_ / 2
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func calculateNiceTimeStep(duration time.Duration, width int) time.Duration {
	desiredLabels := float64(width) / pixelsPerLabel
	roughStep := duration.Seconds() / desiredLabels

	// Nice time intervals in seconds
	niceIntervals := []float64{
		1,     // 1 second
		5,     // 5 seconds
		10,    // 10 seconds
		30,    // 30 seconds
		60,    // 1 minute
		300,   // 5 minutes
		600,   // 10 minutes
		900,   // 15 minutes
		1800,  // 30 minutes
		3600,  // 1 hour
		7200,  // 2 hours
		14400, // 4 hours
	}

	for _, interval := range niceIntervals {
		if roughStep <= interval {
			return time.Duration(interval) * time.Second
		}
	}

	return time.Hour * 6 // Default for very long sessions
}
