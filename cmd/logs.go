package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coal/fwdash/internal/app"
	"github.com/coal/fwdash/internal/config"
	"github.com/coal/fwdash/internal/widgets"
)

var (
	logsFilter widgets.FilterState
	logsJSON   bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print one page of firewall logs",
	Long:  "Fetch one page of /api/logs with the given filters and print it as a table.",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

func init() {
	f := logsCmd.Flags()
	f.StringVarP(&logsFilter.Query, "query", "q", "", "Free-text search")
	f.StringVar(&logsFilter.Action, "action", "", "Action filter (ALLOW, BLOCK, DENY)")
	f.StringVar(&logsFilter.Proto, "proto", "", "Protocol filter")
	f.StringVar(&logsFilter.Port, "port", "", "Port filter")
	f.StringVar(&logsFilter.IP, "ip", "", "Source or destination IP filter")
	f.StringVar(&logsFilter.From, "from", "", "Lower timestamp bound")
	f.StringVar(&logsFilter.To, "to", "", "Upper timestamp bound")
	f.IntVar(&logsFilter.Page, "page", 1, "Page number")
	f.IntVar(&logsFilter.PageSize, "page-size", 0, "Rows per page (default: config)")
	f.BoolVar(&logsJSON, "json", false, "Print the raw page as JSON")
}

func runLogs(cmd *cobra.Command, args []string) error {
	if logsFilter.Page < 1 {
		return fmt.Errorf("--page must be at least 1")
	}
	d, err := oneShot(func(cfg *config.Config) {
		if logsFilter.PageSize > 0 {
			cfg.Logs.PageSize = logsFilter.PageSize
		}
	})
	if err != nil {
		return err
	}
	defer d.Stop()

	if err := d.Logs.Load(cmd.Context(), logsFilter); err != nil {
		return err
	}

	if logsJSON {
		page, _ := d.Logs.Page()
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	fmt.Fprint(cmd.OutOrStdout(), d.Logs.Table().Text(terminalWidth()))
	return nil
}

// oneShot builds a dashboard for a single command run. Nothing is
// scheduled; commands refresh the widgets they need directly.
func oneShot(adjust ...func(*config.Config)) (*app.Dashboard, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	for _, fn := range adjust {
		fn(cfg)
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	return app.New(app.Options{Config: cfg, Logger: logger})
}
