package stats

import (
	"fmt"

	"github.com/vincentbai/browsetrace-dashboard/internal/models"
)

// Element ids the dashboard page must provide.
const (
	ElementMap                   = "map"
	ElementUserChart             = "userChart"
	ElementISPChart              = "ispChart"
	ElementDeviceChart           = "deviceChart"
	ElementBrowserChart          = "browserChart"
	ElementInstalledPluginsChart = "installedPluginsChart"
	ElementTimeOnPageChart       = "timeOnPageChart"
)

// ChartSpec binds one aggregated field to a chart on the page.
type ChartSpec struct {
	Key       string
	Type      ChartType
	Title     string
	CanvasID  string
	Aggregate func([]models.UserRecord) Histogram
}

func byField(f Field) func([]models.UserRecord) Histogram {
	return func(records []models.UserRecord) Histogram { return AggregateData(records, f) }
}

var Charts = []ChartSpec{
	{Key: "platform", Type: ChartPie, Title: "User Platform Distribution", CanvasID: ElementUserChart, Aggregate: byField(FieldPlatform)},
	{Key: "isp", Type: ChartBar, Title: "ISP Distribution", CanvasID: ElementISPChart, Aggregate: byField(FieldISP)},
	{Key: "device_type", Type: ChartPie, Title: "Device Type Distribution", CanvasID: ElementDeviceChart, Aggregate: byField(FieldDeviceType)},
	{Key: "browser_name", Type: ChartBar, Title: "Browser Distribution", CanvasID: ElementBrowserChart, Aggregate: byField(FieldBrowserName)},
	{Key: "installed_plugins", Type: ChartBar, Title: "Installed Plugins Distribution", CanvasID: ElementInstalledPluginsChart, Aggregate: AggregateInstalledPlugins},
}

const TimeOnPageTitle = "Time on Page Distribution"

// Elements lists every id Render touches.
func Elements() []string {
	ids := []string{ElementMap}
	for _, spec := range Charts {
		ids = append(ids, spec.CanvasID)
	}
	return append(ids, ElementTimeOnPageChart)
}

// PopupContent formats the marker popup for one record.
func PopupContent(r models.UserRecord) string {
	return fmt.Sprintf("IP: %s\nLanguage: %s\nTimezone: %s Offset: %d\nScreen Size: %s Window Size: %s\nPlatform: %s %s\nCPU Cores: %d\nGPU: %s",
		r.PublicIP, r.Language, r.Timezone, r.TimezoneOffset, r.ScreenSize, r.WindowSize,
		r.Platform, r.DeviceType, r.CPU, r.GPU)
}

// InitializeMap looks up the map element and creates the world view.
func InitializeMap(view View) (MapHandle, error) {
	if err := view.Lookup(ElementMap); err != nil {
		return nil, err
	}
	return view.InitMap(DefaultMapConfig())
}

func AddUserMarkers(m MapHandle, records []models.UserRecord) {
	for _, r := range records {
		m.AddMarker(Marker{Lat: r.Latitude, Lon: r.Longitude, Popup: PopupContent(r)})
	}
}

// CreateChart renders c, or the no-data placeholder when c has no values.
func CreateChart(view View, id string, c Chart) error {
	if err := view.Lookup(id); err != nil {
		return err
	}
	if len(c.Values) == 0 {
		return view.RenderNoData(id)
	}
	return view.RenderChart(id, c)
}

// InitCharts renders the categorical charts followed by the time-on-page
// line chart, which is drawn even when there are no records.
func InitCharts(view View, records []models.UserRecord) error {
	for _, spec := range Charts {
		labels, values := spec.Aggregate(records).Sorted()
		c := Chart{Type: spec.Type, Title: spec.Title, Labels: labels, Values: values}
		if err := CreateChart(view, spec.CanvasID, c); err != nil {
			return fmt.Errorf("%s chart: %w", spec.Key, err)
		}
	}

	if err := view.Lookup(ElementTimeOnPageChart); err != nil {
		return fmt.Errorf("time_on_page chart: %w", err)
	}
	labels, values := TimeOnPage(records)
	c := Chart{Type: ChartLine, Title: TimeOnPageTitle, Labels: labels, Values: values}
	if err := view.RenderChart(ElementTimeOnPageChart, c); err != nil {
		return fmt.Errorf("time_on_page chart: %w", err)
	}
	return nil
}

// Render runs the whole dashboard pass once. The first failure stops the
// remaining steps.
func Render(view View, records []models.UserRecord) error {
	m, err := InitializeMap(view)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	AddUserMarkers(m, records)
	return InitCharts(view, records)
}
