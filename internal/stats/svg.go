package stats

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const NoDataMessage = "No data available"

// SVGView renders charts to SVG on the server and collects markers for the
// browser-side map.
type SVGView struct {
	width    int
	height   int
	elements map[string]bool
	mapCfg   *MapConfig
	markers  []Marker
	charts   map[string][]byte
}

// NewSVGView returns a view whose page contains the given element ids.
func NewSVGView(width, height int, elements ...string) *SVGView {
	v := &SVGView{
		width:    width,
		height:   height,
		elements: make(map[string]bool, len(elements)),
		markers:  []Marker{},
		charts:   make(map[string][]byte),
	}
	for _, id := range elements {
		v.elements[id] = true
	}
	return v
}

func (v *SVGView) Lookup(id string) error {
	if !v.elements[id] {
		return notFound(id)
	}
	return nil
}

func (v *SVGView) InitMap(cfg MapConfig) (MapHandle, error) {
	v.mapCfg = &cfg
	return svgMap{v}, nil
}

type svgMap struct{ v *SVGView }

func (m svgMap) AddMarker(marker Marker) {
	m.v.markers = append(m.v.markers, marker)
}

// MapConfig is nil until InitMap ran.
func (v *SVGView) MapConfig() *MapConfig { return v.mapCfg }

func (v *SVGView) Markers() []Marker { return v.markers }

// SVG returns the rendered document for id, or nil.
func (v *SVGView) SVG(id string) []byte { return v.charts[id] }

func (v *SVGView) RenderChart(id string, c Chart) error {
	var buf bytes.Buffer
	var err error
	switch {
	case c.Type == ChartPie:
		err = v.renderPie(&buf, c)
	case c.Type == ChartBar:
		err = v.renderBar(&buf, c)
	case c.Type == ChartLine && len(c.Values) == 0:
		err = v.renderText(&buf, c.Title, "")
	case c.Type == ChartLine:
		err = v.renderLine(&buf, c)
	default:
		err = fmt.Errorf("unsupported chart type %q", c.Type)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", id, err)
	}
	v.charts[id] = buf.Bytes()
	return nil
}

func (v *SVGView) RenderNoData(id string) error {
	var buf bytes.Buffer
	if err := v.renderText(&buf, "", NoDataMessage); err != nil {
		return fmt.Errorf("render %s: %w", id, err)
	}
	v.charts[id] = buf.Bytes()
	return nil
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// values builds chart values with escaped labels. go-chart writes text
// into the SVG as-is and labels come from unauthenticated records.
func (v *SVGView) values(c Chart) []chart.Value {
	values := make([]chart.Value, len(c.Values))
	for i, value := range c.Values {
		fill := color(ColorAt(i))
		values[i] = chart.Value{
			Value: value,
			Label: html.EscapeString(c.Labels[i]),
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		}
	}
	return values
}

func (v *SVGView) renderPie(buf *bytes.Buffer, c Chart) error {
	pie := chart.PieChart{
		Title:  c.Title,
		Width:  v.width,
		Height: v.height,
		Values: v.values(c),
	}
	return pie.Render(chart.SVG, buf)
}

func (v *SVGView) renderBar(buf *bytes.Buffer, c Chart) error {
	barWidth := v.width / (2*len(c.Values) + 1)
	if barWidth < 4 {
		barWidth = 4
	}
	bars := chart.BarChart{
		Title:      c.Title,
		Width:      v.width,
		Height:     v.height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxOrOne(c.Values)},
		},
		Bars: v.values(c),
	}
	return bars.Render(chart.SVG, buf)
}

func (v *SVGView) renderLine(buf *bytes.Buffer, c Chart) error {
	xs := make([]float64, len(c.Values))
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	graph := chart.Chart{
		Title:      c.Title,
		Width:      v.width,
		Height:     v.height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 1, Max: math.Max(float64(len(xs)), 2)},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxOrOne(c.Values)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.Title,
				XValues: xs,
				YValues: c.Values,
				Style:   chart.Style{StrokeColor: color(ColorAt(0)), StrokeWidth: 2},
			},
		},
	}
	return graph.Render(chart.SVG, buf)
}

// renderText draws an otherwise empty canvas with an optional title at the
// top and an optional message in the middle.
func (v *SVGView) renderText(buf *bytes.Buffer, title, message string) error {
	r, err := chart.SVG(v.width, v.height)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(font)
	r.SetFontColor(drawing.ColorWhite)
	if title != "" {
		r.SetFontSize(14)
		r.Text(title, 10, 24)
	}
	if message != "" {
		r.SetFontSize(20)
		r.Text(message, v.width/2-100, v.height/2)
	}
	return r.Save(buf)
}

func maxOrOne(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return 1
	}
	return max
}
