package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltplan/voltplan/app"
	"github.com/voltplan/voltplan/config"
)

var planDay string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one planning cycle",
	Long:  "Runs one planning cycle for the target day, writing a plan for every device that has none yet.",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planDay, "day", "", "target day (YYYY-MM-DD, default: next day boundary)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pl, err := app.NewPlanner(cfg)
	if err != nil {
		return err
	}
	var target time.Time
	if planDay != "" {
		tz, err := cfg.Location()
		if err != nil {
			return err
		}
		target, err = time.ParseInLocation("2006-01-02", planDay, tz)
		if err != nil {
			return fmt.Errorf("invalid --day %q: %w", planDay, err)
		}
	}
	return pl.Run(ctx, target)
}
