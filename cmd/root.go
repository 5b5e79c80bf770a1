package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coal/fwdash/internal/config"
	"github.com/coal/fwdash/internal/render"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	configFile string
	serverURL  string
	logLevel   string
	themeName  string
)

var rootCmd = &cobra.Command{
	Use:   "fwdash",
	Short: "Terminal dashboard for a firewall log analyzer",
	Long: `fwdash polls a firewall log analyzer's HTTP API and shows its KPIs,
traffic, top talkers, network graph, searchable logs and alerts. Alerts can
be acknowledged and closed from the dashboard.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config YAML file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Analyzer base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "Theme: dark or light (overrides config)")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("fwdash v%s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stderr}).
		Level(level).
		With().Timestamp().Str("component", "fwdash").Logger(), nil
}

// loadConfig reads --config when given and applies the persistent flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}
	if themeName != "" {
		cfg.Theme = render.Theme(themeName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
