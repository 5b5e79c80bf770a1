// Package render holds the declarative chart, table and graph descriptions
// widgets produce, and the renderers that consume them.
package render

import "errors"

// ErrNoData is returned by renderers that cannot draw the given data.
var ErrNoData = errors.New("not enough data to render")

// ChartKind selects the chart type.
type ChartKind int

const (
	ChartLine ChartKind = iota
	ChartBar
)

func (k ChartKind) String() string {
	if k == ChartBar {
		return "bar"
	}
	return "line"
}

// ChartStyle is the options block passed when a chart is constructed.
type ChartStyle struct {
	Title       string  `json:"title"`
	SeriesLabel string  `json:"series_label"`
	Fill        bool    `json:"fill"`
	Tension     float64 `json:"tension"`
	BorderWidth float64 `json:"border_width"`
	Horizontal  bool    `json:"horizontal"`
	Color       string  `json:"color"`
	LabelColor  string  `json:"label_color"`
	GridColor   string  `json:"grid_color"`
}

// ChartSpec is a complete chart description: kind, one series and style.
type ChartSpec struct {
	Kind   ChartKind  `json:"kind"`
	Labels []string   `json:"labels"`
	Values []int64    `json:"values"`
	Style  ChartStyle `json:"style"`
}

// Chart is a stateful chart object. It is constructed once and then updated
// in place.
type Chart interface {
	SetData(labels []string, values []int64)
	Update() error
	Spec() ChartSpec
}

// ChartFactory constructs charts.
type ChartFactory interface {
	NewChart(spec ChartSpec) (Chart, error)
}

// Viewer is implemented by renderers that can draw themselves as text.
type Viewer interface {
	View(width, height int) string
}

// Theme is the colour scheme. Only label and grid colours depend on it.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// TextColor is the chart label colour for the theme.
func (t Theme) TextColor() string {
	if t == ThemeLight {
		return "#1c1c1c"
	}
	return "#e6e6e6"
}

// GridColor is the chart grid colour for the theme.
func (t Theme) GridColor() string {
	if t == ThemeLight {
		return "rgba(0,0,0,.08)"
	}
	return "rgba(255,255,255,.08)"
}

// LineStyle is the traffic chart style.
func LineStyle(t Theme) ChartStyle {
	return ChartStyle{
		Title:       "Traffic",
		SeriesLabel: "Events/min",
		Fill:        true,
		Tension:     0.35,
		BorderWidth: 2,
		Color:       "#00bcd4",
		LabelColor:  t.TextColor(),
		GridColor:   t.GridColor(),
	}
}

// BarStyle is the top talkers chart style.
func BarStyle(t Theme) ChartStyle {
	return ChartStyle{
		Title:       "Top talkers",
		SeriesLabel: "Flows",
		Horizontal:  true,
		BorderWidth: 1,
		Color:       "#3f51b5",
		LabelColor:  t.TextColor(),
		GridColor:   t.GridColor(),
	}
}

func copyData(labels []string, values []int64) ([]string, []int64) {
	l := make([]string, len(labels))
	copy(l, labels)
	v := make([]int64, len(values))
	copy(v, values)
	return l, v
}
