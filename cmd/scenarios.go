package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/model"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [ID]",
	Short: "List saved scenarios, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(_ *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	ctx := context.Background()
	if len(args) == 1 {
		return showScenario(ctx, e, args[0])
	}

	scenarios, err := e.store.ListScenarios(ctx, e.userID)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(scenarios)
	}
	if len(scenarios) == 0 {
		fmt.Println("\n  No saved scenarios. Use `fincast simulate ... --save NAME`.")
		return nil
	}

	rows := make([][]string, 0, len(scenarios))
	for _, sc := range scenarios {
		rows = append(rows, []string{
			sc.Name,
			string(sc.Kind),
			scenarioImpact(sc),
			cli.FormatAge(sc.CreatedAt, e.now),
			sc.ID,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Saved scenarios",
		Headers: []string{"Name", "Type", "Impact", "Saved", "ID"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func showScenario(ctx context.Context, e *env, id string) error {
	sc, err := e.store.GetScenario(ctx, id)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(sc)
	}

	var res model.SimulationResult
	if err := json.Unmarshal(sc.Results, &res); err != nil {
		return fmt.Errorf("scenario %s results: %w", sc.ID, err)
	}
	fmt.Println()
	fmt.Println(cli.RenderKV("Name", sc.Name))
	fmt.Println(cli.RenderKV("Saved", sc.CreatedAt.Local().Format("2006-01-02 15:04")))
	if len(res.OriginalPredictions) > 0 {
		printSimulation(res)
	}
	return nil
}

// scenarioImpact sums the monthly deltas stored with a scenario.
func scenarioImpact(sc model.Scenario) string {
	var res model.SimulationResult
	if err := json.Unmarshal(sc.Results, &res); err != nil {
		return "-"
	}
	var total float64
	for _, d := range res.MonthlyDeltas() {
		total += d
	}
	return cli.FormatDelta(total)
}
