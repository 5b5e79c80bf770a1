// Package app assembles the dashboard: it constructs every widget once,
// wires them to the connectivity monitor, metrics and mirror, and registers
// their refreshes with the scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/coal/fwdash/internal/api"
	"github.com/coal/fwdash/internal/audit"
	"github.com/coal/fwdash/internal/config"
	"github.com/coal/fwdash/internal/connectivity"
	"github.com/coal/fwdash/internal/dashboard"
	"github.com/coal/fwdash/internal/enrich"
	"github.com/coal/fwdash/internal/metrics"
	"github.com/coal/fwdash/internal/render"
	"github.com/coal/fwdash/internal/scheduler"
	"github.com/coal/fwdash/internal/widgets"
)

// Options configures New. Zero factories use the terminal renderers.
type Options struct {
	Config *config.Config
	Logger zerolog.Logger
	Charts render.ChartFactory
	Graphs render.GraphFactory
}

// Dashboard owns the widgets and their collaborators.
type Dashboard struct {
	cfg    *config.Config
	logger zerolog.Logger

	Client   *api.Client
	Monitor  *connectivity.Monitor
	Metrics  *metrics.Collector
	Registry *prometheus.Registry
	Hub      *dashboard.Hub

	Stats      *widgets.Stats
	Traffic    *widgets.Traffic
	TopTalkers *widgets.TopTalkers
	Graph      *widgets.NetGraph
	Logs       *widgets.Logs
	Alerts     *widgets.Alerts

	audit *audit.Logger
	geo   *enrich.Geo

	mu        sync.Mutex
	sched     *scheduler.Scheduler
	server    *http.Server
	addr      string
	listeners []func(id string)
}

// New builds the dashboard. Nothing is fetched until Start.
func New(opt Options) (*Dashboard, error) {
	cfg := opt.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	charts := opt.Charts
	if charts == nil {
		charts = render.TermFactory{}
	}
	graphs := opt.Graphs
	if graphs == nil {
		graphs = render.TermGraphFactory{}
	}

	client, err := api.NewClient(cfg.Server, cfg.Timeout, opt.Logger)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		cfg:      cfg,
		logger:   opt.Logger.With().Str("component", "app").Logger(),
		Client:   client,
		Monitor:  connectivity.NewMonitor(),
		Metrics:  metrics.New(),
		Registry: prometheus.NewRegistry(),
	}
	d.Metrics.Register(d.Registry)
	d.Monitor.OnChange(func(st connectivity.State) {
		d.Metrics.SetConnectivity(st.Live, st.LastRefreshAt)
	})
	d.Hub = dashboard.NewHub(d.Monitor, opt.Logger)

	d.audit = audit.NopLogger()
	if cfg.AuditLog != "" {
		if d.audit, err = audit.NewFileLogger(cfg.AuditLog); err != nil {
			return nil, fmt.Errorf("creating audit logger: %w", err)
		}
	}
	if d.geo, err = enrich.NewGeo(cfg.GeoIP.CountryDB); err != nil {
		d.audit.Close()
		return nil, err
	}

	deps := widgets.Deps{
		Client:  client,
		Monitor: d.Monitor,
		Metrics: d.Metrics,
		Logger:  opt.Logger,
		Theme:   cfg.Theme,
		Notify:  d.notify,
		OnPoll:  d.Hub.OnPoll,
	}
	d.Stats = widgets.NewStats(deps)
	d.Traffic = widgets.NewTraffic(deps, charts, cfg.Traffic.Minutes)
	d.TopTalkers = widgets.NewTopTalkers(deps, charts, cfg.TopTalkers.Limit)
	d.Graph = widgets.NewNetGraph(deps, graphs, d.geo, cfg.Graph.Limit)
	d.Logs = widgets.NewLogs(deps, cfg.Logs.PageSize)
	d.Alerts = widgets.NewAlerts(deps, d.audit, cfg.Alerts.Limit)

	for _, w := range d.Widgets() {
		d.Hub.Track(w)
	}
	return d, nil
}

// Widgets returns every widget in display order.
func (d *Dashboard) Widgets() []widgets.Widget {
	return []widgets.Widget{d.Stats, d.Traffic, d.TopTalkers, d.Graph, d.Logs, d.Alerts}
}

// Interval returns the configured poll interval of a widget.
func (d *Dashboard) Interval(id string) time.Duration {
	iv := d.cfg.Intervals
	switch id {
	case widgets.IDStats:
		return iv.Stats
	case widgets.IDTraffic:
		return iv.Traffic
	case widgets.IDTopTalkers:
		return iv.TopTalkers
	case widgets.IDLogs:
		return iv.Logs
	case widgets.IDAlerts:
		return iv.Alerts
	case widgets.IDGraph:
		return iv.Graph
	}
	return 0
}

// OnChange registers fn to be called after any widget applied new state.
func (d *Dashboard) OnChange(fn func(id string)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

func (d *Dashboard) notify(id string) {
	d.Hub.OnChange(id)
	d.mu.Lock()
	ls := d.listeners
	d.mu.Unlock()
	for _, fn := range ls {
		fn(id)
	}
}

// Start registers every widget with a new scheduler. Widgets with an
// interval fire immediately and then periodically; manual widgets fire
// once. When a mirror address is configured the mirror server is started.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.sched != nil {
		d.mu.Unlock()
		return errors.New("dashboard already started")
	}
	d.sched = scheduler.New(ctx, d.logger)
	sched := d.sched
	d.mu.Unlock()

	if d.cfg.Mirror.Listen != "" {
		if err := d.startMirror(ctx); err != nil {
			sched.Stop()
			return err
		}
	}

	for _, w := range d.Widgets() {
		w := w
		interval := d.Interval(w.ID())
		sched.Schedule(w.ID(), interval, func(ctx context.Context) {
			w.Refresh(ctx)
		})
		if interval == 0 {
			sched.Trigger(w.ID())
		}
		d.logger.Debug().Str("widget", w.ID()).Dur("interval", interval).Msg("scheduled")
	}
	d.logger.Info().Str("server", d.Client.BaseURL()).Msg("dashboard started")
	return nil
}

// Refresh fires one out-of-band refresh of widget id.
func (d *Dashboard) Refresh(id string) bool {
	d.mu.Lock()
	sched := d.sched
	d.mu.Unlock()
	if sched == nil {
		return false
	}
	return sched.Trigger(id)
}

// RefreshAll fires one out-of-band refresh of every widget.
func (d *Dashboard) RefreshAll() {
	for _, w := range d.Widgets() {
		d.Refresh(w.ID())
	}
}

// Cancel stops the periodic refresh of widget id.
func (d *Dashboard) Cancel(id string) bool {
	d.mu.Lock()
	sched := d.sched
	d.mu.Unlock()
	if sched == nil {
		return false
	}
	return sched.Cancel(id)
}

func (d *Dashboard) startMirror(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.Mirror.Listen)
	if err != nil {
		return fmt.Errorf("mirror listen: %w", err)
	}
	dashboard.Run(ctx, d.Hub)
	srv := &http.Server{
		Handler:           dashboard.Handler(d.Hub, d.Registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	d.mu.Lock()
	d.server, d.addr = srv, ln.Addr().String()
	d.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error().Err(err).Msg("mirror server stopped")
		}
	}()
	d.logger.Info().Str("listen", ln.Addr().String()).Msg("mirror available at /_fwdash/")
	return nil
}

// MirrorAddr returns the address the mirror is bound to, "" when disabled.
func (d *Dashboard) MirrorAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Stop cancels every refresh, waits for in-flight ones, shuts the mirror
// down and closes the audit log and GeoIP database.
func (d *Dashboard) Stop() error {
	d.mu.Lock()
	sched, srv := d.sched, d.server
	d.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	var errs []error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		errs = append(errs, srv.Shutdown(ctx))
		cancel()
	}
	errs = append(errs, d.audit.Close(), d.geo.Close())
	return errors.Join(errs...)
}
