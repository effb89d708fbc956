package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltplan/voltplan/app"
	"github.com/voltplan/voltplan/config"
	"github.com/voltplan/voltplan/core/prices"
)

var sensorCmd = &cobra.Command{
	Use:   "sensor <price [mean|min|max <days>] | plan <device> | info <device>>",
	Short: "Print a sensor value",
	Long: "Prints the requested value to stdout. On any failure it prints " +
		"\"error: <message>\" and exits with code 1, so callers can treat a " +
		"nonzero exit as \"value unavailable\".",
	Args: cobra.MinimumNArgs(1),
	Run:  runSensor,
}

func init() {
	rootCmd.AddCommand(sensorCmd)
}

// runSensor implements the sensor output contract itself instead of relying
// on cobra's error handling: downstream automation parses stdout.
func runSensor(cmd *cobra.Command, args []string) {
	value, err := sensorValue(args)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

func sensorValue(args []string) (string, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", err
	}
	tz, err := cfg.Location()
	if err != nil {
		return "", err
	}
	facade, err := app.NewFacade(cfg)
	if err != nil {
		return "", err
	}
	now := time.Now().In(tz)

	switch args[0] {
	case "price":
		if len(args) == 1 {
			v, err := facade.CurrentPrice(now)
			if err != nil {
				return "", err
			}
			return formatPrice(v), nil
		}
		if len(args) != 3 {
			return "", fmt.Errorf("usage: sensor price <mean|min|max> <days>")
		}
		days, err := strconv.Atoi(args[2])
		if err != nil || days <= 0 {
			return "", fmt.Errorf("invalid days: %s", args[2])
		}
		v, err := facade.StatisticalPrice(now, prices.StatOp(args[1]), days)
		if err != nil {
			return "", err
		}
		return formatPrice(v), nil
	case "plan":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: sensor plan <device>")
		}
		state, err := facade.DeviceState(args[1], now)
		if err != nil {
			return "", err
		}
		return string(state), nil
	case "info":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: sensor info <device>")
		}
		info, err := facade.DeviceInfo(args[1], now)
		if err != nil {
			return "", err
		}
		return string(info), nil
	default:
		return "", fmt.Errorf("unknown argument: %s", args[0])
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
