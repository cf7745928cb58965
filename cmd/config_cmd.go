package cmd

import (
	"fmt"

	"github.com/theirongolddev/fincast/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cfg)
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    User:             %s\n", config.UserID(cfg))
	fmt.Printf("    Database:         %s\n", config.DBPath(cfg))
	fmt.Printf("    Forecast months:  %d\n", cfg.General.ForecastMonths)
	fmt.Printf("    Simulate months:  %d\n", cfg.General.SimulateMonths)
	fmt.Println()

	fmt.Println("  [Savings]")
	fmt.Printf("    Interest rate:    %.2f%%\n", cfg.Savings.DefaultInterestRate)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:          %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval:         %ds\n", cfg.Daemon.IntervalSec)
	fmt.Printf("    Events buffer:    %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:            %s\n", cfg.Log.Level)
	fmt.Printf("    Format:           %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:            %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `fincast setup` to reconfigure.")
	return nil
}
