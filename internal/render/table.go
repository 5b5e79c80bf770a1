package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Cell is one table cell. Text is already escaped. Span > 1 merges columns.
type Cell struct {
	Text  string `json:"text"`
	Class string `json:"class,omitempty"`
	Span  int    `json:"span,omitempty"`
}

// Row is one table row.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Table is a declarative table: header, body rows and a footer line.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Footer  string   `json:"footer,omitempty"`
}

// Escape makes server-provided text inert on a terminal. Escape sequences
// are stripped, line breaks and tabs become spaces and other control
// characters are dropped. Everything else, markup included, stays literal.
func Escape(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, ansi.Strip(s))
}

// EmptyRow is the single placeholder row shown for an empty result set.
func EmptyRow(text string, span int) Row {
	return Row{Cells: []Cell{{Text: Escape(text), Class: "muted", Span: span}}}
}

var classStyles = map[string]lipgloss.Style{
	"allow":         lipgloss.NewStyle().Foreground(lipgloss.Color("#4caf50")),
	"block":         lipgloss.NewStyle().Foreground(lipgloss.Color("#f44336")).Bold(true),
	"danger":        lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#dc3545")),
	"warning":       lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ffc107")),
	"success":       lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#198754")),
	"secondary":     lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#6c757d")),
	"danger-subtle": lipgloss.NewStyle().Foreground(lipgloss.Color("#f8d7da")),
	"muted":         lipgloss.NewStyle().Faint(true),
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00bcd4"))

// StyleFor returns the terminal style for a cell class.
func StyleFor(class string) lipgloss.Style {
	if st, ok := classStyles[class]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// Text draws the table for a terminal of the given width. Columns are sized
// to their content and shrunk evenly when they do not fit.
func (t Table) Text(width int) string {
	cols := len(t.Columns)
	if cols == 0 {
		return ""
	}
	widths := make([]int, cols)
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range t.Rows {
		col := 0
		for _, c := range r.Cells {
			if c.Span <= 1 && col < cols {
				widths[col] = max(widths[col], lipgloss.Width(c.Text))
			}
			col += max(1, c.Span)
		}
	}
	fitWidths(widths, width)

	var sb strings.Builder
	for i, c := range t.Columns {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(headerStyle.Render(pad(c, widths[i])))
	}
	sb.WriteByte('\n')
	for _, r := range t.Rows {
		col := 0
		for j, c := range r.Cells {
			if col >= cols {
				break
			}
			if j > 0 {
				sb.WriteString("  ")
			}
			span := min(max(1, c.Span), cols-col)
			w := (span - 1) * 2
			for k := col; k < col+span; k++ {
				w += widths[k]
			}
			text := truncate(c.Text, w)
			fill := strings.Repeat(" ", max(0, w-lipgloss.Width(text)))
			if c.Class != "" {
				text = StyleFor(c.Class).Render(text)
			}
			sb.WriteString(text + fill)
			col += span
		}
		sb.WriteByte('\n')
	}
	if t.Footer != "" {
		sb.WriteString(StyleFor("muted").Render(t.Footer))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func fitWidths(widths []int, total int) {
	if total <= 0 {
		return
	}
	sum := 2 * (len(widths) - 1)
	for _, w := range widths {
		sum += w
	}
	for sum > total {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 4 {
			return
		}
		widths[widest]--
		sum--
	}
}

func pad(s string, w int) string {
	s = truncate(s, w)
	return s + strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
}
