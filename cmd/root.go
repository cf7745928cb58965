// Package cmd implements the fincast CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/logger"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/store"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagAccount string
	flagUser    string
	flagDB      string
	flagNow     string
	flagQuiet   bool
	flagJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "fincast",
	Short: "Spending forecasts and what-if scenarios",
	Long:  "Forecast monthly spending per category from your transaction history and simulate hypothetical changes.",
	RunE:  runForecast,

	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagAccount, "account", "a", model.AllAccounts, "Account to forecast (\"all\" for every account)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User ID (default from config or $FINCAST_USER)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Reference date, RFC3339 or YYYY-MM-DD (default: current time)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print machine-readable JSON")

	rootCmd.Flags().IntVarP(&flagForecastMonths, "months", "m", 0, "Months to forecast (default from config)")
}

// env is the resolved per-invocation context shared by commands.
type env struct {
	cfg    config.Config
	userID string
	store  *store.Store
	log    zerolog.Logger
	now    time.Time
}

// openEnv loads config, resolves identity and reference time, and opens the store.
// Callers must Close the returned env.
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	now, err := resolveNow(flagNow, time.Now())
	if err != nil {
		return nil, err
	}

	userID := flagUser
	if userID == "" {
		userID = config.UserID(cfg)
	}

	dbPath := flagDB
	if dbPath == "" {
		dbPath = config.DBPath(cfg)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		userID: userID,
		store:  st,
		log:    logger.WithFields(newLogger(cfg), map[string]interface{}{"user": userID}),
		now:    now,
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// history loads the user's transactions for the selected account.
func (e *env) history(ctx context.Context) ([]model.Transaction, error) {
	start := time.Now()
	txs, err := e.store.ListTransactions(ctx, model.TransactionFilter{
		UserID:    e.userID,
		AccountID: flagAccount,
	})
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	e.log.Debug().
		Str("user", e.userID).
		Str("account", flagAccount).
		Int("transactions", len(txs)).
		Dur("took", time.Since(start)).
		Msg("history loaded")
	if !flagQuiet && !flagJSON {
		fmt.Fprintf(os.Stderr, "  Loaded %s transactions for %s\n", cli.FormatNumber(int64(len(txs))), e.userID)
	}
	return txs, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	opts := logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if flagQuiet && opts.Level != "debug" {
		opts.Level = "warn"
	}
	return logger.NewWithOptions(os.Stderr, opts)
}

// resolveNow parses the --now override. An empty value yields fallback.
func resolveNow(v string, fallback time.Time) (time.Time, error) {
	if v == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: want RFC3339 or YYYY-MM-DD", v)
	}
	return t, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
