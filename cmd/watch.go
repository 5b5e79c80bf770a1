package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coal/fwdash/internal/app"
	"github.com/coal/fwdash/internal/render"
	"github.com/coal/fwdash/internal/tui"
	"github.com/coal/fwdash/internal/widgets"
)

var (
	watchPlain    bool
	watchMirror   string
	watchPNGDir   string
	watchLogFile  string
	watchAuditLog string
	watchGeoDB    string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the live dashboard",
	Long: `Run the live dashboard. On a terminal the interactive view is shown;
otherwise, or with --plain, every widget update is printed as a line.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Print updates as lines instead of the interactive view")
	watchCmd.Flags().StringVar(&watchMirror, "mirror", "", "Serve the local mirror and /metrics on this address (e.g. 127.0.0.1:7070)")
	watchCmd.Flags().StringVar(&watchPNGDir, "png-dir", "", "Also render the charts as PNG files into this directory")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "Write logs to this file (default: discarded in the interactive view)")
	watchCmd.Flags().StringVar(&watchAuditLog, "audit-log", "", "Append alert actions as JSON lines to this file (overrides config)")
	watchCmd.Flags().StringVar(&watchGeoDB, "geoip-db", "", "GeoLite2 country database for graph annotations (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchMirror != "" {
		cfg.Mirror.Listen = watchMirror
	}
	if watchAuditLog != "" {
		cfg.AuditLog = watchAuditLog
	}
	if watchGeoDB != "" {
		cfg.GeoIP.CountryDB = watchGeoDB
	}

	interactive := !watchPlain && term.IsTerminal(int(os.Stdout.Fd()))

	var logOut io.Writer = os.Stderr
	if watchLogFile != "" {
		f, err := os.OpenFile(watchLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	} else if interactive {
		logOut = io.Discard
	}
	logger, err := newLogger(logOut)
	if err != nil {
		return err
	}

	var charts render.ChartFactory = render.TermFactory{}
	if watchPNGDir != "" {
		charts = render.Tee(render.TermFactory{}, render.PNGFactory{Dir: watchPNGDir, Width: 800, Height: 400})
	}

	d, err := app.New(app.Options{Config: cfg, Logger: logger, Charts: charts})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !interactive {
		var mu sync.Mutex
		d.OnChange(func(id string) {
			mu.Lock()
			defer mu.Unlock()
			printUpdate(cmd.OutOrStdout(), d, id)
		})
	}

	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()

	logger.Info().
		Str("server", cfg.Server).
		Bool("interactive", interactive).
		Msg("watching")
	if addr := d.MirrorAddr(); addr != "" {
		fmt.Fprintf(os.Stderr, "  Mirror: http://%s/_fwdash/\n", addr)
	}

	if interactive {
		return tui.Run(ctx, d)
	}
	<-ctx.Done()
	return nil
}

// printUpdate writes one line describing the new state of widget id.
func printUpdate(w io.Writer, d *app.Dashboard, id string) {
	ts := time.Now().Format("15:04:05")
	switch id {
	case widgets.IDStats:
		var parts []string
		for _, c := range d.Stats.Cards() {
			parts = append(parts, c.Label+"="+c.Value)
		}
		fmt.Fprintf(w, "%s stats %s\n", ts, strings.Join(parts, " "))
	case widgets.IDTraffic:
		fmt.Fprintf(w, "%s traffic %s\n", ts, chartSummary(d.Traffic.Chart()))
	case widgets.IDTopTalkers:
		fmt.Fprintf(w, "%s top_talkers %s\n", ts, chartSummary(d.TopTalkers.Chart()))
	case widgets.IDGraph:
		el := d.Graph.Elements()
		fmt.Fprintf(w, "%s graph nodes=%d edges=%d\n", ts, len(el.Nodes), len(el.Edges))
	case widgets.IDLogs:
		page, _ := d.Logs.Page()
		fmt.Fprintf(w, "%s logs page=%d rows=%d total=%d\n", ts, d.Logs.Filter().Page, len(page.Rows), page.Total)
	case widgets.IDAlerts:
		open := 0
		list := d.Alerts.List()
		for _, a := range list {
			if widgets.NormalizeStatus(a.Status) == "OPEN" {
				open++
			}
		}
		fmt.Fprintf(w, "%s alerts shown=%d open=%d\n", ts, len(list), open)
	}
}

func chartSummary(c render.Chart) string {
	if c == nil {
		return "-"
	}
	spec := c.Spec()
	if len(spec.Values) == 0 {
		return "points=0"
	}
	var sum int64
	for _, v := range spec.Values {
		sum += v
	}
	last := spec.Values[len(spec.Values)-1]
	if len(spec.Labels) == len(spec.Values) {
		return fmt.Sprintf("points=%d sum=%d last=%s:%d", len(spec.Values), sum, spec.Labels[len(spec.Labels)-1], last)
	}
	return fmt.Sprintf("points=%d sum=%d last=%d", len(spec.Values), sum, last)
}

// terminalWidth is the width of stdout, 120 when it is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 120
}
