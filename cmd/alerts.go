package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coal/fwdash/internal/config"
	"github.com/coal/fwdash/internal/widgets"
)

// alertLookupLimit is the list size ack and close load to find the alert
// when --limit is not given.
const alertLookupLimit = 1000

var (
	alertsStatus   string
	alertsLimit    int
	alertsAuditLog string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List, acknowledge and close alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the alert list",
	Args:  cobra.NoArgs,
	RunE:  runAlertsList,
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAlertAction(cmd, args[0], widgets.ActionAck)
	},
}

var alertsCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAlertAction(cmd, args[0], widgets.ActionClose)
	},
}

func init() {
	alertsListCmd.Flags().StringVar(&alertsStatus, "status", "", "Status filter: OPEN, ACK or CLOSED (default: all)")
	alertsCmd.PersistentFlags().IntVar(&alertsLimit, "limit", 0, "Maximum number of alerts to load (default: config for list, 1000 for ack and close)")
	alertsCmd.PersistentFlags().StringVar(&alertsAuditLog, "audit-log", "", "Append alert actions as JSON lines to this file (overrides config)")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsAckCmd)
	alertsCmd.AddCommand(alertsCloseCmd)
}

func alertsConfig(cfg *config.Config) {
	if alertsLimit > 0 {
		cfg.Alerts.Limit = alertsLimit
	}
	if alertsAuditLog != "" {
		cfg.AuditLog = alertsAuditLog
	}
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	d, err := oneShot(alertsConfig)
	if err != nil {
		return err
	}
	defer d.Stop()

	if err := d.Alerts.SetStatusFilter(cmd.Context(), alertsStatus); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), d.Alerts.Table().Text(terminalWidth()))
	return nil
}

func runAlertAction(cmd *cobra.Command, arg, action string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid alert id %q", arg)
	}
	d, err := oneShot(alertsConfig, func(cfg *config.Config) {
		if alertsLimit == 0 {
			cfg.Alerts.Limit = alertLookupLimit
		}
	})
	if err != nil {
		return err
	}
	defer d.Stop()

	ctx := cmd.Context()
	// the alert must be in the loaded list for its transition to be checked
	if err := d.Alerts.Refresh(ctx); err != nil {
		return err
	}

	var res widgets.WriteResult
	if action == widgets.ActionAck {
		res, err = d.Alerts.Ack(ctx, id)
	} else {
		res, err = d.Alerts.Close(ctx, id)
	}
	if res.Phase == widgets.PhaseFailed {
		return fmt.Errorf("failed to update alert #%d: %w", id, res.Err)
	}
	if err != nil {
		cmd.PrintErrf("alert #%d updated but the list could not be reloaded: %v\n", id, err)
	}
	cmd.Printf("alert #%d: %s (%s)\n", id, action, res.Phase)
	return nil
}
