package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// TermFactory builds charts drawn with lipgloss.
type TermFactory struct{}

// NewChart implements ChartFactory.
func (TermFactory) NewChart(spec ChartSpec) (Chart, error) {
	c := &TermChart{}
	c.spec = spec
	c.spec.Labels, c.spec.Values = copyData(spec.Labels, spec.Values)
	c.drawn = c.spec
	return c, nil
}

// TermChart keeps the latest data and draws it on demand. SetData stages
// data; Update makes it visible.
type TermChart struct {
	mu      sync.RWMutex
	spec    ChartSpec
	drawn   ChartSpec
	updates int
}

func (c *TermChart) SetData(labels []string, values []int64) {
	c.mu.Lock()
	c.spec.Labels, c.spec.Values = copyData(labels, values)
	c.mu.Unlock()
}

func (c *TermChart) Update() error {
	c.mu.Lock()
	c.drawn = c.spec
	c.updates++
	c.mu.Unlock()
	return nil
}

func (c *TermChart) Spec() ChartSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drawn
}

// Updates is the number of Update calls since construction.
func (c *TermChart) Updates() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updates
}

// View draws the last updated data in a width x height cell box.
func (c *TermChart) View(width, height int) string {
	spec := c.Spec()
	if width < 10 {
		width = 10
	}
	if height < 1 {
		height = 1
	}
	if spec.Kind == ChartBar {
		return barView(spec, width, height)
	}
	return lineView(spec, width)
}

func lineView(spec ChartSpec, width int) string {
	color := lipgloss.NewStyle().Foreground(lipgloss.Color(spec.Style.Color))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(spec.Style.LabelColor)).Faint(true)

	values := spec.Values
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return dim.Render("(no data)")
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	var sb strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) * int64(len(sparkTicks)-1) / (hi - lo))
		}
		sb.WriteRune(sparkTicks[idx])
	}

	first, last := "", ""
	if n := len(spec.Labels); n > 0 {
		first = spec.Labels[max(0, n-len(values))]
		last = spec.Labels[n-1]
	}
	return color.Render(sb.String()) + "\n" +
		dim.Render(fmt.Sprintf("%s  min %d  max %d  now %d  %s", first, lo, hi, values[len(values)-1], last))
}

func barView(spec ChartSpec, width, height int) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(spec.Style.LabelColor)).Faint(true)
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(spec.Style.Color))
	if len(spec.Values) == 0 {
		return dim.Render("(no data)")
	}

	n := min(len(spec.Values), height)
	labelW := 0
	var top int64
	for i := 0; i < n; i++ {
		if i < len(spec.Labels) {
			labelW = max(labelW, lipgloss.Width(spec.Labels[i]))
		}
		top = max(top, spec.Values[i])
	}
	labelW = min(labelW, width/2)
	barW := max(1, width-labelW-10)

	var sb strings.Builder
	for i := 0; i < n; i++ {
		label := ""
		if i < len(spec.Labels) {
			label = spec.Labels[i]
		}
		label = truncate(label, labelW)
		filled := 0
		if top > 0 {
			filled = int(spec.Values[i] * int64(barW) / top)
		}
		fmt.Fprintf(&sb, "%-*s %s%s %d", labelW, label,
			bar.Render(strings.Repeat("█", filled)),
			dim.Render(strings.Repeat("░", barW-filled)),
			spec.Values[i])
		if i < n-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}
