package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	userID := config.UserID(cfg)
	months := strconv.Itoa(cfg.General.ForecastMonths)
	rate := strconv.FormatFloat(cfg.Savings.DefaultInterestRate, 'f', -1, 64)
	themeName := cfg.Appearance.Theme

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fincast").
				Description("Forecasts are stored per user in "+config.DBPath(cfg)+"."),
			huh.NewInput().
				Title("User ID").
				Value(&userID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("user ID is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Default forecast horizon").
				Options(
					huh.NewOption("3 months", "3"),
					huh.NewOption("6 months", "6"),
					huh.NewOption("12 months", "12"),
				).
				Value(&months),
			huh.NewInput().
				Title("Savings interest rate (% per year)").
				Value(&rate).
				Validate(validateRate),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.General.UserID = strings.TrimSpace(userID)
	cfg.General.ForecastMonths, _ = strconv.Atoi(months)
	cfg.Savings.DefaultInterestRate, _ = strconv.ParseFloat(strings.TrimSpace(rate), 64)
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `fincast setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateRate(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number, e.g. 4.5")
	}
	if v < 0 {
		return errors.New("rate must not be negative")
	}
	return nil
}
