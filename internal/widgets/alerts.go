package widgets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/coal/fwdash/internal/api"
	"github.com/coal/fwdash/internal/audit"
	"github.com/coal/fwdash/internal/render"
)

// AlertColumns are the alert table headers.
var AlertColumns = []string{"ID", "Time", "Severity", "Message", "Status", "Actions"}

// Alerts is the alert list with its status filter and write actions.
type Alerts struct {
	base
	audit  *audit.Logger
	limit  int
	filter string
	alerts []api.Alert
	loaded bool
}

// NewAlerts creates the alert widget. auditLog may be nil.
func NewAlerts(d Deps, auditLog *audit.Logger, limit int) *Alerts {
	w := &Alerts{audit: auditLog, limit: limit}
	w.init(IDAlerts, d)
	return w
}

// Refresh loads /api/alerts with the current status filter.
func (w *Alerts) Refresh(ctx context.Context) error {
	status := w.StatusFilter()
	seq, start := w.begin()
	list, err := w.deps.Client.Alerts(ctx, status, w.limit)
	if err != nil {
		w.failed(ctx, start, err)
		return fmt.Errorf("refreshing alerts: %w", err)
	}
	w.apply(seq, func() {
		w.alerts = list
		w.loaded = true
	})
	w.succeeded(start)
	return nil
}

// StatusFilter returns the status filter, "" for all.
func (w *Alerts) StatusFilter() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filter
}

// SetStatusFilter changes the status filter and reloads.
func (w *Alerts) SetStatusFilter(ctx context.Context, status string) error {
	if status != "" {
		status = strings.ToUpper(strings.TrimSpace(status))
	}
	w.mu.Lock()
	w.filter = status
	w.mu.Unlock()
	return w.Refresh(ctx)
}

// Ack acknowledges alert id.
func (w *Alerts) Ack(ctx context.Context, id int64) (WriteResult, error) {
	return w.act(ctx, id, ActionAck)
}

// Close closes alert id.
func (w *Alerts) Close(ctx context.Context, id int64) (WriteResult, error) {
	return w.act(ctx, id, ActionClose)
}

// act checks the transition against the last loaded status, writes it and
// reloads the list whatever the write outcome. An unknown id or a rejected
// transition issues no request. The returned error is the reload error.
func (w *Alerts) act(ctx context.Context, id int64, action string) (WriteResult, error) {
	from, ok := w.statusOf(id)
	if !ok {
		return WriteResult{Phase: PhaseFailed, Err: fmt.Errorf("%w: #%d", ErrUnknownAlert, id)}, nil
	}
	to, err := Transition(from, action)
	if err != nil {
		return WriteResult{Phase: PhaseFailed, Err: err}, nil
	}

	res := WriteStatus(ctx, w.deps.Client, id, to)
	w.deps.Metrics.ObserveAlertWrite(string(res.Phase))

	entry := audit.Entry{
		Server:  w.deps.Client.BaseURL(),
		Action:  action,
		AlertID: id,
		From:    from,
		To:      to,
		Phase:   string(res.Phase),
	}
	ev := w.logger.Info()
	if res.Err != nil {
		entry.Error = res.Err.Error()
		ev = w.logger.Warn().Err(res.Err)
	}
	ev.Int64("alert_id", id).Str("status", to).Str("phase", string(res.Phase)).Msg("alert status write")
	if err := w.audit.Log(entry); err != nil {
		w.logger.Error().Err(err).Msg("writing audit entry")
	}

	return res, w.Refresh(ctx)
}

// statusOf returns the last loaded status of id and whether id is loaded.
func (w *Alerts) statusOf(id int64) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, a := range w.alerts {
		if a.ID == id {
			return a.Status, true
		}
	}
	return "", false
}

// List returns the last applied alert list.
func (w *Alerts) List() []api.Alert {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]api.Alert, len(w.alerts))
	copy(out, w.alerts)
	return out
}

// Table builds the alert table of the last applied list.
func (w *Alerts) Table() render.Table {
	return AlertTable(w.List())
}

// AlertTable builds the alert table. Messages and badge texts are escaped.
func AlertTable(list []api.Alert) render.Table {
	t := render.Table{Columns: AlertColumns}
	if len(list) == 0 {
		t.Rows = []render.Row{render.EmptyRow("No alerts", len(AlertColumns))}
		return t
	}
	t.Rows = make([]render.Row, 0, len(list))
	for _, a := range list {
		sevText, sevClass := SeverityBadge(a.Severity)
		stText, stClass := StatusBadge(a.Status)
		t.Rows = append(t.Rows, render.Row{Cells: []render.Cell{
			{Text: strconv.FormatInt(a.ID, 10)},
			{Text: render.Escape(a.Timestamp)},
			{Text: render.Escape(sevText), Class: sevClass},
			{Text: render.Escape(a.Message)},
			{Text: render.Escape(stText), Class: stClass},
			{Text: "[a]ck [c]lose", Class: "muted"},
		}})
	}
	return t
}

// SeverityBadge returns the badge text and class of a severity. Missing
// severity reads INFO.
func SeverityBadge(sev string) (text, class string) {
	text = sev
	if text == "" {
		text = "INFO"
	}
	switch strings.ToUpper(sev) {
	case "CRITICAL", "HIGH":
		return text, "danger"
	case "MEDIUM":
		return text, "warning"
	case "LOW":
		return text, "success"
	}
	return text, "secondary"
}

// StatusBadge returns the badge text and class of a status. Missing status
// reads OPEN; unknown statuses are styled as OPEN.
func StatusBadge(status string) (text, class string) {
	text = status
	if text == "" {
		text = api.StatusOpen
	}
	switch strings.ToUpper(status) {
	case api.StatusAck:
		return text, "warning"
	case api.StatusClosed:
		return text, "success"
	}
	return text, "danger-subtle"
}

type alertsSnapshot struct {
	Status string       `json:"status"`
	Table  render.Table `json:"table"`
}

func (w *Alerts) Snapshot() any {
	return alertsSnapshot{Status: w.StatusFilter(), Table: w.Table()}
}
