package stats

import (
	"bytes"
	"errors"
	"testing"
)

func TestSVGViewRender(t *testing.T) {
	view := NewSVGView(480, 320, Elements()...)

	if err := Render(view, sampleRecords()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if view.MapConfig() == nil {
		t.Fatal("expected map to be initialized")
	}
	if len(view.Markers()) != 2 {
		t.Errorf("markers = %d, want 2", len(view.Markers()))
	}
	for _, id := range Elements()[1:] {
		svg := view.SVG(id)
		if !bytes.HasPrefix(bytes.TrimSpace(svg), []byte("<svg")) {
			t.Errorf("%s: expected svg document, got %.40q", id, svg)
		}
	}
	if bytes.Contains(view.SVG(ElementUserChart), []byte(NoDataMessage)) {
		t.Error("populated chart must not show the placeholder")
	}
}

func TestSVGViewNoData(t *testing.T) {
	view := NewSVGView(480, 320, Elements()...)

	if err := Render(view, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, spec := range Charts {
		if !bytes.Contains(view.SVG(spec.CanvasID), []byte(NoDataMessage)) {
			t.Errorf("%s: missing placeholder", spec.CanvasID)
		}
	}
	line := view.SVG(ElementTimeOnPageChart)
	if bytes.Contains(line, []byte(NoDataMessage)) {
		t.Error("time on page chart has no placeholder branch")
	}
	if !bytes.Contains(line, []byte(TimeOnPageTitle)) {
		t.Error("empty time on page chart should keep its title")
	}
}

func TestSVGViewSingleRecordLine(t *testing.T) {
	view := NewSVGView(480, 320, ElementTimeOnPageChart)
	c := Chart{Type: ChartLine, Title: TimeOnPageTitle, Labels: []string{"1"}, Values: []float64{0}}
	if err := view.RenderChart(ElementTimeOnPageChart, c); err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
}

func TestSVGViewLookup(t *testing.T) {
	view := NewSVGView(480, 320, ElementMap)
	if err := view.Lookup(ElementMap); err != nil {
		t.Errorf("Lookup(map): %v", err)
	}
	if err := view.Lookup("copy-url"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("Lookup(copy-url) error = %v", err)
	}
}

func TestSVGViewUnsupportedType(t *testing.T) {
	view := NewSVGView(480, 320, "x")
	if err := view.RenderChart("x", Chart{Type: "radar", Values: []float64{1}, Labels: []string{"a"}}); err == nil {
		t.Error("expected error for unsupported chart type")
	}
}

func TestSVGViewEscapesLabels(t *testing.T) {
	view := NewSVGView(480, 320, ElementBrowserChart, ElementUserChart)
	labels := []string{"<img src=x onerror=alert(1)>", "Firefox"}
	values := []float64{2, 1}

	for _, c := range []Chart{
		{Type: ChartBar, Title: "Browser Distribution", Labels: labels, Values: values},
		{Type: ChartPie, Title: "User Platform Distribution", Labels: labels, Values: values},
	} {
		id := ElementBrowserChart
		if c.Type == ChartPie {
			id = ElementUserChart
		}
		if err := view.RenderChart(id, c); err != nil {
			t.Fatalf("RenderChart(%s): %v", c.Type, err)
		}
		svg := view.SVG(id)
		if bytes.Contains(svg, []byte("<img")) {
			t.Errorf("%s: raw label markup in svg", c.Type)
		}
		if !bytes.Contains(svg, []byte("&lt;img")) {
			t.Errorf("%s: expected escaped label in svg", c.Type)
		}
	}
}
