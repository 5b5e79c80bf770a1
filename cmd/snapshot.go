package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coal/fwdash/internal/app"
	"github.com/coal/fwdash/internal/render"
)

var (
	snapshotDir    string
	snapshotWidth  int
	snapshotHeight int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render the traffic and top-talker charts as PNG files",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotDir, "out", "o", ".", "Output directory")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", 800, "Image width in pixels")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", 400, "Image height in pixels")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	d, err := app.New(app.Options{
		Config: cfg,
		Logger: logger,
		Charts: render.PNGFactory{Dir: snapshotDir, Width: snapshotWidth, Height: snapshotHeight},
	})
	if err != nil {
		return err
	}
	defer d.Stop()

	ctx := cmd.Context()
	errs := []error{d.Traffic.Refresh(ctx), d.TopTalkers.Refresh(ctx)}
	for _, c := range []render.Chart{d.Traffic.Chart(), d.TopTalkers.Chart()} {
		if p, ok := c.(*render.PNGChart); ok {
			if _, err := os.Stat(p.Path()); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), p.Path())
			}
		}
	}
	return errors.Join(errs...)
}
