// Package stats turns stored telemetry records into the statistics
// dashboard: map markers, per-field histograms and charts.
package stats

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/vincentbai/browsetrace-dashboard/internal/models"
)

// Histogram counts occurrences per distinct value.
type Histogram map[string]int

// Field selects one categorical value from a record.
type Field func(models.UserRecord) string

var (
	FieldPlatform    Field = func(r models.UserRecord) string { return r.Platform }
	FieldISP         Field = func(r models.UserRecord) string { return r.ISP }
	FieldDeviceType  Field = func(r models.UserRecord) string { return r.DeviceType }
	FieldBrowserName Field = func(r models.UserRecord) string { return r.BrowserName }
)

// AggregateData counts the non-empty values of field across records.
func AggregateData(records []models.UserRecord, field Field) Histogram {
	values := lo.FilterMap(records, func(r models.UserRecord, _ int) (string, bool) {
		v := field(r)
		return v, v != ""
	})
	return lo.CountValues(values)
}

// AggregateInstalledPlugins splits installed_plugins on commas and counts
// each trimmed, non-empty plugin name once per record.
func AggregateInstalledPlugins(records []models.UserRecord) Histogram {
	plugins := lo.FlatMap(records, func(r models.UserRecord, _ int) []string {
		return lo.Uniq(SplitPlugins(r.InstalledPlugins))
	})
	return lo.CountValues(plugins)
}

func SplitPlugins(s string) []string {
	if s == "" {
		return nil
	}
	return lo.FilterMap(strings.Split(s, ","), func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
}

// Sorted returns labels and counts ordered by descending count, then label.
func (h Histogram) Sorted() ([]string, []float64) {
	labels := lo.Keys(map[string]int(h))
	sort.Slice(labels, func(i, j int) bool {
		if h[labels[i]] != h[labels[j]] {
			return h[labels[i]] > h[labels[j]]
		}
		return labels[i] < labels[j]
	})
	values := lo.Map(labels, func(l string, _ int) float64 { return float64(h[l]) })
	return labels, values
}

// TimeOnPage returns 1-based record indexes and the time_on_page of each record.
func TimeOnPage(records []models.UserRecord) ([]string, []float64) {
	labels := lo.Times(len(records), func(i int) string { return itoa(i + 1) })
	values := lo.Map(records, func(r models.UserRecord, _ int) float64 { return r.TimeOnPage })
	return labels, values
}
