package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PNGFactory builds charts that write a PNG file on construction and on
// every Update.
type PNGFactory struct {
	Dir    string
	Width  int
	Height int
}

// NewChart implements ChartFactory.
func (f PNGFactory) NewChart(spec ChartSpec) (Chart, error) {
	if f.Dir == "" {
		return nil, errors.New("png chart: output directory is required")
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("png chart: creating %s: %w", f.Dir, err)
	}
	c := &PNGChart{
		path:   filepath.Join(f.Dir, Slug(spec.Style.Title)+".png"),
		width:  f.Width,
		height: f.Height,
	}
	c.spec = spec
	c.spec.Labels, c.spec.Values = copyData(spec.Labels, spec.Values)
	if err := c.Update(); err != nil {
		return nil, err
	}
	return c, nil
}

// PNGChart renders to a file on disk.
type PNGChart struct {
	mu     sync.Mutex
	spec   ChartSpec
	path   string
	width  int
	height int
}

func (c *PNGChart) SetData(labels []string, values []int64) {
	c.mu.Lock()
	c.spec.Labels, c.spec.Values = copyData(labels, values)
	c.mu.Unlock()
}

func (c *PNGChart) Spec() ChartSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spec
}

// Path is the file the chart is written to.
func (c *PNGChart) Path() string { return c.path }

// Update rewrites the PNG file. Data that cannot be drawn yet is skipped.
func (c *PNGChart) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".chart-*.png")
	if err != nil {
		return fmt.Errorf("png chart: %w", err)
	}
	defer os.Remove(tmp.Name())

	err = WritePNG(tmp, c.spec, c.width, c.height)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if errors.Is(err, ErrNoData) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("png chart %s: %w", c.path, err)
	}
	return os.Rename(tmp.Name(), c.path)
}

// WritePNG draws spec as a PNG image. A line chart needs two points and a
// bar chart one bar, otherwise ErrNoData is returned.
func WritePNG(w io.Writer, spec ChartSpec, width, height int) error {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 400
	}
	if spec.Kind == ChartBar {
		return writeBar(w, spec, width, height)
	}
	return writeLine(w, spec, width, height)
}

func writeLine(w io.Writer, spec ChartSpec, width, height int) error {
	n := len(spec.Values)
	if n < 2 {
		return ErrNoData
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	var hi float64
	for i, v := range spec.Values {
		xs[i] = float64(i)
		ys[i] = float64(v)
		hi = max(hi, ys[i])
	}

	ticks := labelTicks(spec.Labels, n, 8)
	st := spec.Style
	stroke := hexColor(st.Color)
	series := chart.Style{
		StrokeColor: stroke,
		StrokeWidth: st.BorderWidth,
	}
	if st.Fill {
		series.FillColor = stroke.WithAlpha(64)
	}

	ch := chart.Chart{
		Title:      st.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "minute", Range: &chart.ContinuousRange{Min: 0, Max: float64(n - 1)}, Ticks: ticks},
		YAxis:      chart.YAxis{Name: st.SeriesLabel, Range: &chart.ContinuousRange{Min: 0, Max: hi + 1}},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: st.SeriesLabel, XValues: xs, YValues: ys, Style: series},
		},
	}
	return ch.Render(chart.PNG, w)
}

func writeBar(w io.Writer, spec ChartSpec, width, height int) error {
	if len(spec.Values) == 0 {
		return ErrNoData
	}
	st := spec.Style
	fill := hexColor(st.Color)
	bars := make([]chart.Value, len(spec.Values))
	var hi float64
	for i, v := range spec.Values {
		label := ""
		if i < len(spec.Labels) {
			label = spec.Labels[i]
		}
		bars[i] = chart.Value{
			Label: label,
			Value: float64(v),
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: st.BorderWidth},
		}
		hi = max(hi, float64(v))
	}
	bc := chart.BarChart{
		Title:      st.Title,
		Width:      width,
		Height:     height,
		BarWidth:   max(8, width/(2*len(bars)+1)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: hi + 1}},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

// labelTicks picks at most max evenly spaced labels for the x axis.
func labelTicks(labels []string, n, maxTicks int) []chart.Tick {
	if len(labels) == 0 {
		return nil
	}
	step := max(1, n/maxTicks)
	ticks := make([]chart.Tick, 0, maxTicks+1)
	for i := 0; i < n && i < len(labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}
	return ticks
}

func hexColor(s string) drawing.Color {
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return drawing.ColorFromHex("00bcd4")
	}
	return drawing.ColorFromHex(s)
}

// Slug turns a chart title into a file name.
func Slug(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	var sb strings.Builder
	dash := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(sb.String(), "-")
	if out == "" {
		return "chart"
	}
	return out
}
