// Package tui is the interactive terminal front end of the dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coal/fwdash/internal/app"
	"github.com/coal/fwdash/internal/render"
	"github.com/coal/fwdash/internal/widgets"
)

type view int

const (
	viewOverview view = iota
	viewLogs
	viewAlerts
	viewGraph
)

var viewNames = []string{"Overview", "Logs", "Alerts", "Graph"}

// input targets of the prompt line
const (
	promptQuery = "search"
	promptIP    = "ip"
	promptPort  = "port"
	promptProto = "proto"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00bcd4"))
	tabStyle     = lipgloss.NewStyle().Padding(0, 1)
	activeTab    = tabStyle.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00bcd4"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3f51b5")).Padding(0, 2)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#333333"))
	liveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4caf50"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f44336"))
	toastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#dc3545")).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00bcd4")).Bold(true)
)

// actionFilters is the cycle of the log action filter.
var actionFilters = []string{"", "ALLOW", "BLOCK", "DENY"}

// statusFilters is the cycle of the alert status filter.
var statusFilters = []string{"", "OPEN", "ACK", "CLOSED"}

type changedMsg string

type tickMsg time.Time

type doneMsg struct {
	what string
	err  error
}

type writeMsg struct {
	id  int64
	res widgets.WriteResult
	err error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx     context.Context
	d       *app.Dashboard
	changes chan string

	view     view
	width    int
	height   int
	selected int

	prompt string
	input  string

	toast      string
	toastUntil time.Time
	now        func() time.Time
}

// New creates the model and subscribes it to widget changes.
func New(ctx context.Context, d *app.Dashboard) *Model {
	m := &Model{
		ctx:     ctx,
		d:       d,
		changes: make(chan string, 64),
		width:   100,
		height:  30,
		now:     time.Now,
	}
	d.OnChange(func(id string) {
		select {
		case m.changes <- id:
		default:
		}
	})
	return m
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, d *app.Dashboard) error {
	p := tea.NewProgram(New(ctx, d), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), tick())
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case id := <-m.changes:
			return changedMsg(id)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// run executes fn off the event loop and reports its error.
func (m *Model) run(what string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{what: what, err: fn(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case changedMsg:
		if string(msg) == widgets.IDAlerts {
			m.clampSelection()
		}
		return m, m.waitForChange()
	case tickMsg:
		return m, tick()
	case doneMsg:
		if msg.err != nil && m.ctx.Err() == nil {
			m.setToast(fmt.Sprintf("%s failed", msg.what))
		}
		return m, nil
	case writeMsg:
		if msg.err != nil {
			m.setToast(fmt.Sprintf("reload failed after alert #%d update", msg.id))
		} else if msg.res.Phase == widgets.PhaseFailed {
			m.setToast(fmt.Sprintf("Failed to update alert #%d", msg.id))
		}
		m.clampSelection()
		return m, nil
	case tea.KeyMsg:
		if m.prompt != "" {
			return m.updatePrompt(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt, m.input = "", ""
		return m, nil
	case tea.KeyEnter:
		target, value := m.prompt, strings.TrimSpace(m.input)
		m.prompt, m.input = "", ""
		return m, m.run("filter", func(ctx context.Context) error {
			switch target {
			case promptIP:
				return m.d.Logs.SetIP(ctx, value)
			case promptPort:
				return m.d.Logs.SetPort(ctx, value)
			case promptProto:
				return m.d.Logs.SetProto(ctx, value)
			}
			return m.d.Logs.SetQuery(ctx, value)
		})
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m, m.enter((m.view + 1) % view(len(viewNames)))
	case "shift+tab":
		return m, m.enter((m.view + view(len(viewNames)) - 1) % view(len(viewNames)))
	case "1", "2", "3", "4":
		return m, m.enter(view(msg.String()[0] - '1'))
	case "r":
		if m.view == viewOverview {
			m.d.RefreshAll()
			return m, nil
		}
		m.d.Refresh(m.current())
		return m, nil
	}

	switch m.view {
	case viewLogs:
		return m, m.logsKey(msg.String())
	case viewAlerts:
		return m, m.alertsKey(msg.String())
	case viewGraph:
		return m, m.graphKey(msg.String())
	}
	return m, nil
}

// enter switches views. The alert and graph views reload on entry.
func (m *Model) enter(v view) tea.Cmd {
	m.view = v
	m.selected = 0
	switch v {
	case viewAlerts:
		return m.run("alerts", m.d.Alerts.Refresh)
	case viewGraph:
		return m.run("graph", m.d.Graph.Refresh)
	}
	return nil
}

func (m *Model) current() string {
	switch m.view {
	case viewLogs:
		return widgets.IDLogs
	case viewAlerts:
		return widgets.IDAlerts
	case viewGraph:
		return widgets.IDGraph
	}
	return widgets.IDStats
}

func (m *Model) logsKey(key string) tea.Cmd {
	switch key {
	case "n", "right":
		return m.run("next page", m.d.Logs.Next)
	case "p", "left":
		return m.run("previous page", m.d.Logs.Prev)
	case "/":
		m.prompt = promptQuery
		m.input = m.d.Logs.Filter().Query
	case "i":
		m.prompt = promptIP
		m.input = m.d.Logs.Filter().IP
	case "o":
		m.prompt = promptPort
		m.input = m.d.Logs.Filter().Port
	case "t":
		m.prompt = promptProto
		m.input = m.d.Logs.Filter().Proto
	case "f":
		next := cycle(actionFilters, m.d.Logs.Filter().Action)
		return m.run("filter", func(ctx context.Context) error { return m.d.Logs.SetAction(ctx, next) })
	case "x":
		return m.run("reset", m.d.Logs.ResetFilters)
	}
	return nil
}

func (m *Model) alertsKey(key string) tea.Cmd {
	list := m.d.Alerts.List()
	switch key {
	case "j", "down":
		if m.selected < len(list)-1 {
			m.selected++
		}
	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}
	case "s":
		next := cycle(statusFilters, m.d.Alerts.StatusFilter())
		m.selected = 0
		return m.run("alerts", func(ctx context.Context) error { return m.d.Alerts.SetStatusFilter(ctx, next) })
	case "a", "c":
		if m.selected >= len(list) {
			return nil
		}
		id := list[m.selected].ID
		write := m.d.Alerts.Ack
		if key == "c" {
			write = m.d.Alerts.Close
		}
		return func() tea.Msg {
			res, err := write(m.ctx, id)
			return writeMsg{id: id, res: res, err: err}
		}
	}
	return nil
}

func (m *Model) graphKey(key string) tea.Cmd {
	switch key {
	case "+", "=":
		n := m.d.Graph.Limit() + 10
		return m.run("graph", func(ctx context.Context) error { return m.d.Graph.SetLimit(ctx, n) })
	case "-", "_":
		n := max(10, m.d.Graph.Limit()-10)
		return m.run("graph", func(ctx context.Context) error { return m.d.Graph.SetLimit(ctx, n) })
	case "z":
		m.d.Graph.Fit()
	case "Z", "]":
		zoom(m.d.Graph.View(), 1.25)
	case "[":
		zoom(m.d.Graph.View(), 0.8)
	case "h":
		pan(m.d.Graph.View(), -0.1, 0)
	case "l":
		pan(m.d.Graph.View(), 0.1, 0)
	case "k":
		pan(m.d.Graph.View(), 0, -0.1)
	case "j":
		pan(m.d.Graph.View(), 0, 0.1)
	}
	return nil
}

type zoomer interface{ Zoom(factor float64) }

type panner interface{ Pan(dx, dy float64) }

func zoom(v render.GraphView, f float64) {
	if z, ok := v.(zoomer); ok {
		z.Zoom(f)
	}
}

func pan(v render.GraphView, dx, dy float64) {
	if p, ok := v.(panner); ok {
		p.Pan(dx, dy)
	}
}

func cycle(values []string, cur string) string {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func (m *Model) clampSelection() {
	if n := len(m.d.Alerts.List()); m.selected >= n {
		m.selected = max(0, n-1)
	}
}

func (m *Model) setToast(s string) {
	m.toast = s
	m.toastUntil = m.now().Add(5 * time.Second)
}

func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	bodyHeight := max(5, m.height-6)
	switch m.view {
	case viewOverview:
		sb.WriteString(m.overview(bodyHeight))
	case viewLogs:
		sb.WriteString(m.logs())
	case viewAlerts:
		sb.WriteString(m.alerts())
	case viewGraph:
		sb.WriteString(m.graph(bodyHeight))
	}
	sb.WriteString("\n")
	sb.WriteString(m.footer())
	return sb.String()
}

func (m *Model) header() string {
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		if view(i) == m.view {
			tabs[i] = activeTab.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("fwdash "), strings.Join(tabs, ""))
}

func (m *Model) overview(height int) string {
	cards := m.d.Stats.Cards()
	tiles := make([]string, len(cards))
	for i, c := range cards {
		tiles[i] = cardStyle.Render(c.Label + "\n" + titleStyle.Render(c.Value))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tiles...)

	half := max(20, m.width/2-2)
	chartHeight := max(3, height-6)
	traffic := panelStyle.Width(half).Render(chartView(m.d.Traffic.Chart(), "Traffic", half, chartHeight))
	talkers := panelStyle.Width(half).Render(chartView(m.d.TopTalkers.Chart(), "Top talkers", half, chartHeight))
	return row + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, traffic, talkers)
}

func chartView(c render.Chart, title string, width, height int) string {
	if c == nil {
		return titleStyle.Render(title) + "\n" + helpStyle.Render("waiting for data")
	}
	v, ok := c.(render.Viewer)
	if !ok {
		return titleStyle.Render(title)
	}
	return titleStyle.Render(c.Spec().Style.Title) + "\n" + v.View(width-2, height)
}

func (m *Model) logs() string {
	f := m.d.Logs.Filter()
	var parts []string
	for _, kv := range [][2]string{{"q", f.Query}, {"action", f.Action}, {"proto", f.Proto}, {"port", f.Port}, {"ip", f.IP}} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	filters := "no filters"
	if len(parts) > 0 {
		filters = strings.Join(parts, " ")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "page %d  %s\n", f.Page, helpStyle.Render(filters))
	if m.prompt != "" {
		fmt.Fprintf(&sb, "%s: %s%s\n", m.prompt, m.input, cursorStyle.Render("_"))
	}
	if _, ok := m.d.Logs.Page(); !ok {
		sb.WriteString(helpStyle.Render("loading…"))
		return sb.String()
	}
	sb.WriteString(m.d.Logs.Table().Text(m.width))
	return sb.String()
}

func (m *Model) alerts() string {
	var sb strings.Builder
	status := m.d.Alerts.StatusFilter()
	if status == "" {
		status = "all"
	}
	fmt.Fprintf(&sb, "status: %s\n", status)
	lines := strings.Split(strings.TrimRight(m.d.Alerts.Table().Text(m.width-2), "\n"), "\n")
	for i, line := range lines {
		// line 0 is the header
		if i > 0 && i-1 == m.selected && len(m.d.Alerts.List()) > 0 {
			sb.WriteString(cursorStyle.Render("> "))
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (m *Model) graph(height int) string {
	v := m.d.Graph.View()
	head := fmt.Sprintf("limit %d", m.d.Graph.Limit())
	if v == nil {
		return head + "\n" + helpStyle.Render("waiting for data")
	}
	tv, ok := v.(render.Viewer)
	if !ok {
		return head
	}
	return head + "\n" + tv.View(m.width, height-1)
}

func (m *Model) footer() string {
	st := m.d.Monitor.State()
	conn := offlineStyle.Render("○ Offline")
	if st.Live {
		conn = liveStyle.Render("● Live")
	}
	last := "never"
	if !st.LastRefreshAt.IsZero() {
		last = st.LastRefreshAt.Local().Format("15:04:05")
	}
	line := fmt.Sprintf("%s  Last refresh: %s", conn, last)
	if m.toast != "" && m.now().Before(m.toastUntil) {
		line += "  " + toastStyle.Render(m.toast)
	}
	return line + "\n" + helpStyle.Render(m.help())
}

func (m *Model) help() string {
	common := "tab view · r refresh · q quit"
	switch m.view {
	case viewLogs:
		return "n/p page · / search · i ip · o port · t proto · f action · x reset · " + common
	case viewAlerts:
		return "j/k select · a ack · c close · s status · " + common
	case viewGraph:
		return "+/- limit · z fit · [/] zoom · hjkl pan · " + common
	}
	return common
}
