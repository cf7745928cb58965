package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/forecast"
	"github.com/theirongolddev/fincast/internal/model"

	"github.com/spf13/cobra"
)

var flagForecastMonths int

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast monthly spending per category",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVarP(&flagForecastMonths, "months", "m", 0, "Months to forecast (default from config)")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	months := flagForecastMonths
	if months < 1 {
		months = e.cfg.General.ForecastMonths
	}

	ctx := context.Background()
	txs, err := e.history(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	preds := forecast.GeneratePredictions(txs, months, e.now)
	categories := forecast.Categories(txs)
	e.log.Debug().Int("months", months).Int("categories", len(categories)).Dur("took", time.Since(start)).Msg("forecast generated")

	stored := false
	if len(preds) > 0 {
		// Still print the forecast when storing fails.
		if err := e.store.UpsertPredictions(ctx, e.userID, flagAccount, preds); err != nil {
			e.log.Warn().Err(err).Msg("storing predictions")
		} else {
			stored = true
		}
	}

	if flagJSON {
		return printJSON(preds)
	}

	if len(preds) == 0 {
		fmt.Println("\n  No transactions found. Import some with `fincast import FILE`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  Next %s · %s", cli.FormatMonths(months), flagAccount)))
	fmt.Println()
	fmt.Print(cli.RenderTable(predictionTable("", preds, categories)))
	fmt.Println(cli.RenderKV("Next month", cli.FormatMoney(preds[0].Total)))
	fmt.Println(cli.RenderKV("Confidence", averageConfidence(preds[0])))
	fmt.Println(cli.RenderKV("Categories", cli.FormatNumber(int64(len(categories)))))
	fmt.Println()
	if stored && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Saved %d predictions for %s\n", len(preds), flagAccount)
	}
	return nil
}

// predictionTable lays out one row per month and one column per category.
func predictionTable(title string, preds []model.Prediction, categories []string) cli.Table {
	headers := append([]string{"Month"}, categories...)
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(preds))
	for _, p := range preds {
		row := []string{p.Label()}
		for _, c := range categories {
			cf, ok := p.Categories[c]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%s %s",
				cli.FormatMoney(cf.Amount),
				cli.ConfidenceStyle(cf.Confidence).Render(fmt.Sprintf("%3.0f%%", cf.Confidence*100))))
		}
		row = append(row, cli.FormatMoney(p.Total))
		rows = append(rows, row)
	}
	return cli.Table{Title: title, Headers: headers, Rows: rows}
}

func averageConfidence(p model.Prediction) string {
	if len(p.Categories) == 0 {
		return "-"
	}
	var sum float64
	for _, cf := range p.Categories {
		sum += cf.Confidence
	}
	avg := sum / float64(len(p.Categories))
	return cli.ConfidenceStyle(avg).Render(cli.FormatPercent(avg))
}
