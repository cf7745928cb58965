package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/forecast"
	"github.com/theirongolddev/fincast/internal/model"

	"github.com/spf13/cobra"
)

var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Compare past predictions with what was actually spent",
	RunE:  runAccuracy,
}

func init() {
	rootCmd.AddCommand(accuracyCmd)
}

func runAccuracy(_ *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	ctx := context.Background()
	stored, err := e.store.ListPredictions(ctx, e.userID, forecast.MonthStart(e.now))
	if err != nil {
		return fmt.Errorf("loading predictions: %w", err)
	}
	past := stored[:0]
	for _, sp := range stored {
		if sp.AccountID == flagAccount {
			past = append(past, sp)
		}
	}

	txs, err := e.history(ctx)
	if err != nil {
		return err
	}
	reports := forecast.CompareActuals(past, txs, e.now)

	if flagJSON {
		return printJSON(reports)
	}
	if len(reports) == 0 {
		fmt.Println("\n  No past predictions to compare yet. Forecasts are stored each time `fincast forecast` runs.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ACCURACY  " + flagAccount))
	fmt.Println()

	rows := make([][]string, 0, len(reports)+2)
	var predicted, actual float64
	for _, r := range reports {
		predicted += r.PredictedTotal
		actual += r.ActualTotal
		rows = append(rows, []string{
			r.Month.Format("Jan 2006"),
			cli.FormatMoney(r.PredictedTotal),
			cli.FormatMoney(r.ActualTotal),
			cli.FormatDelta(r.Difference),
			fmt.Sprintf("%.1f%%", r.PercentageDiff),
		})
	}
	rows = append(rows, []string{"---"}, []string{"TOTAL", cli.FormatMoney(predicted), cli.FormatMoney(actual), cli.FormatDelta(actual - predicted), ""})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Predicted vs actual",
		Headers: []string{"Month", "Predicted", "Actual", "Difference", "Diff %"},
		Rows:    rows,
	}))

	latest := reports[len(reports)-1]
	fmt.Print(cli.RenderTable(categoryAccuracyTable(latest)))
	fmt.Println()
	return nil
}

func categoryAccuracyTable(r model.AccuracyReport) cli.Table {
	names := make([]string, 0, len(r.Categories))
	for c := range r.Categories {
		names = append(names, c)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, c := range names {
		ca := r.Categories[c]
		rows = append(rows, []string{
			c,
			cli.FormatMoney(ca.Predicted),
			cli.FormatMoney(ca.Actual),
			cli.FormatDelta(ca.Difference),
			fmt.Sprintf("%.1f%%", ca.PercentageDiff),
		})
	}
	return cli.Table{
		Title:   "By category, " + r.Month.Format("Jan 2006"),
		Headers: []string{"Category", "Predicted", "Actual", "Difference", "Diff %"},
		Rows:    rows,
	}
}
