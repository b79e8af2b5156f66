package stats

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrElementNotFound is returned when the page lacks an element the
// dashboard draws into.
var ErrElementNotFound = errors.New("element not found")

type ChartType string

const (
	ChartPie  ChartType = "pie"
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
)

// Palette is cycled when a chart has more categories than colors.
var Palette = []string{"#007bff", "#dc3545", "#28a745", "#ffc107", "#17a2b8", "#6610f2", "#e83e8c"}

func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

type Chart struct {
	Type   ChartType `json:"type"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Colors returns one palette color per value.
func (c Chart) Colors() []string {
	colors := make([]string, len(c.Values))
	for i := range colors {
		colors[i] = ColorAt(i)
	}
	return colors
}

type MapConfig struct {
	CenterLat   float64 `json:"center_lat"`
	CenterLon   float64 `json:"center_lon"`
	Zoom        int     `json:"zoom"`
	MaxZoom     int     `json:"max_zoom"`
	TileURL     string  `json:"tile_url"`
	Attribution string  `json:"attribution"`
}

func DefaultMapConfig() MapConfig {
	return MapConfig{
		Zoom:        2,
		MaxZoom:     19,
		TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	}
}

// Marker is a point annotation with popup text. Coordinates are passed
// through unvalidated and may be nil.
type Marker struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Popup string   `json:"popup"`
}

type MapHandle interface {
	AddMarker(m Marker)
}

// View is the page the dashboard renders into.
type View interface {
	InitMap(cfg MapConfig) (MapHandle, error)
	// Lookup fails with ErrElementNotFound when id is not on the page.
	Lookup(id string) error
	RenderChart(id string, c Chart) error
	RenderNoData(id string) error
}

func notFound(id string) error {
	return fmt.Errorf("%w: #%s", ErrElementNotFound, id)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
