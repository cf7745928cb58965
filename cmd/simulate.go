package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/simulate"

	"github.com/spf13/cobra"
)

var (
	flagSimMonths      int
	flagSimSave        string
	flagSimAmount      float64
	flagSimCategory    string
	flagSimDescription string
	flagSimPercent     float64
	flagSimMode        string
	flagSimMonthly     float64
	flagSimInitial     float64
	flagSimRate        float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Compare the forecast against a hypothetical change",
}

var simulateExpenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Add a recurring monthly expense",
	RunE:  runSimulateRecurring(model.KindExpense),
}

var simulateIncomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Add a recurring monthly income",
	RunE:  runSimulateRecurring(model.KindIncome),
}

var simulateReduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Cut spending in one category by a percentage",
	RunE:  runSimulateReduce,
}

var simulateSavingsCmd = &cobra.Command{
	Use:   "savings",
	Short: "Project a recurring savings contribution",
	RunE:  runSimulateSavings,
}

func init() {
	simulateCmd.PersistentFlags().IntVarP(&flagSimMonths, "months", "m", 0, "Months to simulate (default from config)")
	simulateCmd.PersistentFlags().StringVar(&flagSimSave, "save", "", "Save the scenario under this name")

	for _, c := range []*cobra.Command{simulateExpenseCmd, simulateIncomeCmd} {
		c.Flags().Float64Var(&flagSimAmount, "amount", 0, "Monthly amount")
		c.Flags().StringVarP(&flagSimCategory, "category", "c", "", "Category")
		c.Flags().StringVar(&flagSimDescription, "description", "", "Optional description")
		_ = c.MarkFlagRequired("amount")
		_ = c.MarkFlagRequired("category")
	}

	simulateReduceCmd.Flags().StringVarP(&flagSimCategory, "category", "c", "", "Category to reduce")
	simulateReduceCmd.Flags().Float64Var(&flagSimPercent, "percent", 0, "Reduction percentage (0-100)")
	simulateReduceCmd.Flags().StringVar(&flagSimMode, "mode", string(model.ReduceFutureOnly), "future-only or forecast")
	_ = simulateReduceCmd.MarkFlagRequired("category")
	_ = simulateReduceCmd.MarkFlagRequired("percent")

	simulateSavingsCmd.Flags().Float64Var(&flagSimMonthly, "monthly", 0, "Monthly contribution")
	simulateSavingsCmd.Flags().Float64Var(&flagSimInitial, "initial", 0, "Starting balance")
	simulateSavingsCmd.Flags().Float64Var(&flagSimRate, "rate", 0, "Annual interest rate in percent (default from config)")
	_ = simulateSavingsCmd.MarkFlagRequired("monthly")

	simulateCmd.AddCommand(simulateExpenseCmd, simulateIncomeCmd, simulateReduceCmd, simulateSavingsCmd)
	rootCmd.AddCommand(simulateCmd)
}

func runSimulateRecurring(kind model.SimulationKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		item := model.RecurringItem{
			Amount:      flagSimAmount,
			Category:    flagSimCategory,
			Description: flagSimDescription,
			AccountID:   accountParam(),
		}
		return runSimulation(cmd, kind, item, func(e *env, txs []model.Transaction, months int) (model.SimulationResult, error) {
			if kind == model.KindIncome {
				return simulate.NewIncome(txs, item, months, e.now)
			}
			return simulate.NewExpense(txs, item, months, e.now)
		})
	}
}

func runSimulateReduce(cmd *cobra.Command, _ []string) error {
	params := model.ReductionParams{
		Category: flagSimCategory,
		Mode:     model.ReductionMode(flagSimMode),
	}
	if cmd.Flags().Changed("percent") {
		pct := flagSimPercent
		params.Percentage = &pct
	}
	return runSimulation(cmd, model.KindReduction, params, func(e *env, txs []model.Transaction, months int) (model.SimulationResult, error) {
		return simulate.CategoryReduction(txs, params, months, e.now)
	})
}

func runSimulateSavings(cmd *cobra.Command, _ []string) error {
	plan := model.SavingsPlan{
		InitialAmount: flagSimInitial,
		InterestRate:  flagSimRate,
		AccountID:     accountParam(),
	}
	if cmd.Flags().Changed("monthly") {
		monthly := flagSimMonthly
		plan.MonthlyAmount = &monthly
	}
	return runSimulation(cmd, model.KindSavings, plan, func(e *env, txs []model.Transaction, months int) (model.SimulationResult, error) {
		if !cmd.Flags().Changed("rate") {
			plan.InterestRate = e.cfg.Savings.DefaultInterestRate
		}
		return simulate.SavingsPlan(txs, plan, months, e.now)
	})
}

type simulateFunc func(e *env, txs []model.Transaction, months int) (model.SimulationResult, error)

// runSimulation loads history, runs fn, prints the comparison, and saves the
// scenario when --save is set.
func runSimulation(cmd *cobra.Command, kind model.SimulationKind, params any, fn simulateFunc) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	months := simulationMonths(cmd.Flags().Changed("months"), flagSimMonths, e.cfg.General.SimulateMonths)

	ctx := context.Background()
	txs, err := e.history(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := fn(e, txs, months)
	if err != nil {
		e.log.Debug().Err(err).Str("kind", string(kind)).Msg("simulation rejected")
		return err
	}
	e.log.Debug().Str("kind", string(kind)).Int("months", months).Dur("took", time.Since(start)).Msg("simulation complete")

	var warnings []string
	if res.Kind == model.KindReduction && res.ReductionMode == model.ReduceFutureOnly && res.ScaledTransactions == 0 {
		warnings = append(warnings, fmt.Sprintf("no future-dated %s transactions to scale; forecast unchanged (try --mode forecast)", res.Category))
	}

	if flagSimSave != "" {
		sc, err := saveScenario(ctx, e, kind, params, res)
		if err != nil {
			return err
		}
		if !flagQuiet && !flagJSON {
			fmt.Fprintf(os.Stderr, "  Saved scenario %q (%s)\n", sc.Name, sc.ID)
		}
	}

	if flagJSON {
		return printJSON(struct {
			Result   model.SimulationResult `json:"result"`
			Warnings []string               `json:"warnings,omitempty"`
		}{res, warnings})
	}

	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(w))
	}
	printSimulation(res)
	return nil
}

// simulationMonths picks the horizon. An explicit --months is passed through
// as given so the simulator can reject values below one.
func simulationMonths(explicit bool, flag, fallback int) int {
	if explicit {
		return flag
	}
	return fallback
}

func saveScenario(ctx context.Context, e *env, kind model.SimulationKind, params any, res model.SimulationResult) (model.Scenario, error) {
	p, err := json.Marshal(params)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("encoding parameters: %w", err)
	}
	r, err := json.Marshal(res)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("encoding results: %w", err)
	}
	return e.store.SaveScenario(ctx, model.Scenario{
		UserID:     e.userID,
		Name:       flagSimSave,
		Kind:       kind,
		Parameters: p,
		Results:    r,
	})
}

func printSimulation(res model.SimulationResult) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("SIMULATION  " + simulationTitle(res)))
	fmt.Println()

	deltas := res.MonthlyDeltas()
	rows := make([][]string, 0, len(deltas)+2)
	var baseTotal, simTotal float64
	for i, d := range deltas {
		o, s := res.OriginalPredictions[i], res.SimulatedPredictions[i]
		baseTotal += o.Total
		simTotal += s.Total
		rows = append(rows, []string{o.Label(), cli.FormatMoney(o.Total), cli.FormatMoney(s.Total), cli.FormatDelta(d)})
	}
	rows = append(rows, []string{"---"}, []string{"TOTAL", cli.FormatMoney(baseTotal), cli.FormatMoney(simTotal), cli.FormatDelta(simTotal - baseTotal)})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Baseline vs simulated spend",
		Headers: []string{"Month", "Baseline", "Simulated", "Change"},
		Rows:    rows,
	}))

	switch res.Kind {
	case model.KindExpense, model.KindIncome:
		if di := res.DirectImpact; di != nil {
			fmt.Println(cli.RenderKV("Monthly impact", cli.FormatDelta(di.MonthlyImpact)))
			fmt.Println(cli.RenderKV("Total impact", cli.FormatDelta(di.TotalImpact)+" over "+cli.FormatMonths(di.Months)))
		}
	case model.KindReduction:
		fmt.Println(cli.RenderKV("Mode", string(res.ReductionMode)))
		if res.ReductionMode == model.ReduceFutureOnly {
			fmt.Println(cli.RenderKV("Scaled entries", cli.FormatNumber(int64(res.ScaledTransactions))))
		}
	case model.KindSavings:
		printNetWorth(res.NetWorthProjection)
	}
	fmt.Println()
}

func printNetWorth(points []model.NetWorthPoint) {
	if len(points) == 0 {
		return
	}
	peak := points[len(points)-1].Amount
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{p.Month.Format("Jan 2006"), cli.FormatMoney(p.Amount), cli.RenderBar(p.Amount, peak, 30)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Projected balance",
		Headers: []string{"Month", "Balance", ""},
		Rows:    rows,
	}))
}

func simulationTitle(res model.SimulationResult) string {
	switch {
	case res.NewExpense != nil:
		return fmt.Sprintf("+%s/mo %s", cli.FormatMoney(res.NewExpense.Amount), res.NewExpense.Category)
	case res.NewIncome != nil:
		return fmt.Sprintf("+%s/mo income (%s)", cli.FormatMoney(res.NewIncome.Amount), res.NewIncome.Category)
	case res.Kind == model.KindReduction:
		return fmt.Sprintf("-%.0f%% %s", res.ReductionPercentage, res.Category)
	case res.SavingsPlan != nil && res.SavingsPlan.MonthlyAmount != nil:
		return fmt.Sprintf("save %s/mo", cli.FormatMoney(*res.SavingsPlan.MonthlyAmount))
	}
	return string(res.Kind)
}

// accountParam returns the account a hypothetical item is booked against.
func accountParam() string {
	if flagAccount == model.AllAccounts {
		return ""
	}
	return flagAccount
}
