package cmd

import (
	"fmt"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/simulate"

	"github.com/spf13/cobra"
)

var (
	flagGoalTarget  float64
	flagGoalMonthly float64
	flagGoalInitial float64
	flagGoalRate    float64
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Months of saving needed to reach a target balance",
	RunE:  runGoal,
}

func init() {
	goalCmd.Flags().Float64Var(&flagGoalTarget, "target", 0, "Target balance")
	goalCmd.Flags().Float64Var(&flagGoalMonthly, "monthly", 0, "Monthly contribution")
	goalCmd.Flags().Float64Var(&flagGoalInitial, "initial", 0, "Starting balance")
	goalCmd.Flags().Float64Var(&flagGoalRate, "rate", 0, "Annual interest rate in percent (default from config)")
	_ = goalCmd.MarkFlagRequired("target")
	_ = goalCmd.MarkFlagRequired("monthly")
	rootCmd.AddCommand(goalCmd)
}

// goalResult is the --json shape of the goal command.
type goalResult struct {
	TargetAmount  float64 `json:"targetAmount"`
	MonthlyAmount float64 `json:"monthlyAmount"`
	InitialAmount float64 `json:"initialAmount"`
	InterestRate  float64 `json:"interestRate"`
	Months        int     `json:"months"`
	Reached       bool    `json:"reached"`
}

func runGoal(cmd *cobra.Command, _ []string) error {
	rate := flagGoalRate
	if !cmd.Flags().Changed("rate") {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		rate = cfg.Savings.DefaultInterestRate
	}

	months, reached, err := simulate.TimeToGoal(flagGoalTarget, flagGoalMonthly, flagGoalInitial, rate)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(goalResult{
			TargetAmount:  flagGoalTarget,
			MonthlyAmount: flagGoalMonthly,
			InitialAmount: flagGoalInitial,
			InterestRate:  rate,
			Months:        months,
			Reached:       reached,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SAVINGS GOAL  " + cli.FormatMoney(flagGoalTarget)))
	fmt.Println()
	fmt.Println(cli.RenderKV("Monthly", cli.FormatMoney(flagGoalMonthly)))
	fmt.Println(cli.RenderKV("Starting balance", cli.FormatMoney(flagGoalInitial)))
	fmt.Println(cli.RenderKV("Interest", fmt.Sprintf("%.2f%% / year", rate)))
	if reached {
		fmt.Println(cli.RenderKV("Time to goal", cli.FormatMonths(months)))
	} else {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("goal not reached within %s", cli.FormatMonths(simulate.MaxGoalMonths))))
	}
	fmt.Println()
	return nil
}
