package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coal/fwdash/internal/config"
	"github.com/coal/fwdash/internal/graph"
	"github.com/coal/fwdash/internal/render"
)

var (
	graphLimit  int
	graphDOT    bool
	graphJSON   bool
	graphGeoDB  string
	graphHeight int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Draw the source/destination flow graph",
	Long: `Fetch the top talkers and draw them as a directed graph of source and
destination nodes. Use --dot for Graphviz output or --json for the raw
element set.`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().IntVar(&graphLimit, "limit", 0, "Number of flow records drawn (default: config)")
	graphCmd.Flags().BoolVar(&graphDOT, "dot", false, "Output Graphviz DOT")
	graphCmd.Flags().BoolVar(&graphJSON, "json", false, "Output the element set as JSON")
	graphCmd.Flags().StringVar(&graphGeoDB, "geoip-db", "", "GeoLite2 country database for node annotations (overrides config)")
	graphCmd.Flags().IntVar(&graphHeight, "height", 30, "Canvas height in rows")
}

func runGraph(cmd *cobra.Command, args []string) error {
	d, err := oneShot(func(cfg *config.Config) {
		if graphLimit > 0 {
			cfg.Graph.Limit = graphLimit
		}
		if graphGeoDB != "" {
			cfg.GeoIP.CountryDB = graphGeoDB
		}
	})
	if err != nil {
		return err
	}
	defer d.Stop()

	if err := d.Graph.Refresh(cmd.Context()); err != nil {
		return err
	}
	el := d.Graph.Elements()

	out := cmd.OutOrStdout()
	switch {
	case graphDOT:
		fmt.Fprint(out, graph.DOT(el))
	case graphJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(el)
	default:
		v, ok := d.Graph.View().(render.Viewer)
		if !ok {
			return fmt.Errorf("graph view cannot be drawn as text")
		}
		fmt.Fprintln(out, v.View(terminalWidth(), graphHeight))
		cmd.PrintErrf("%d nodes, %d edges\n", len(el.Nodes), len(el.Edges))
	}
	return nil
}
