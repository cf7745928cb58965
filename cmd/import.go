package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/source"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	flagImportDryRun    bool
	flagImportMaxErrors int
)

var importCmd = &cobra.Command{
	Use:   "import FILE|DIR",
	Short: "Import transactions from CSV or JSONL files",
	Long: "Import transactions from a .csv, .jsonl or .ndjson file, or every such file under a directory.\n" +
		"Columns: type, amount, category, date, account_id, and optionally description and is_recurring.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportDryRun, "dry-run", false, "Parse and validate without storing")
	importCmd.Flags().IntVar(&flagImportMaxErrors, "max-errors", 10, "Rejected rows to print per file")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	files, err := source.ScanDir(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .csv or .jsonl files found in %s", args[0])
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	ctx := context.Background()
	start := time.Now()

	// Parse in parallel; store sequentially so one sqlite writer holds the lock.
	results := make([]source.ImportResult, len(files))
	parseErrs := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, df := range files {
		g.Go(func() error {
			results[i], parseErrs[i] = source.ImportFile(df)
			return nil
		})
	}
	_ = g.Wait()

	var (
		imported, rejected int
		failed             error
	)
	for i, df := range files {
		if err := parseErrs[i]; err != nil {
			e.log.Error().Err(err).Str("path", df.Path).Msg("import failed")
			failed = multierr.Append(failed, err)
			continue
		}
		res := results[i]

		if !flagImportDryRun && len(res.Transactions) > 0 {
			if err := e.store.InsertTransactions(ctx, e.userID, res.Transactions); err != nil {
				return fmt.Errorf("storing %s: %w", df.Path, err)
			}
		}
		imported += len(res.Transactions)
		rejected += len(res.Errors)

		e.log.Debug().
			Str("path", df.Path).
			Int("rows", res.Rows).
			Int("imported", len(res.Transactions)).
			Int("rejected", len(res.Errors)).
			Msg("file imported")

		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  %s: %d of %d rows\n", df.Path, len(res.Transactions), res.Rows)
			for j, rowErr := range res.Errors {
				if j == flagImportMaxErrors {
					fmt.Fprintf(os.Stderr, "    ... and %d more\n", len(res.Errors)-j)
					break
				}
				fmt.Fprintf(os.Stderr, "    %s\n", cli.RenderWarning(rowErr.Error()))
			}
		}
	}

	verb := "Imported"
	if flagImportDryRun {
		verb = "Validated"
	}
	fmt.Printf("  %s %s transactions for %s (%d rejected) in %s\n",
		verb, cli.FormatNumber(int64(imported)), e.userID, rejected, time.Since(start).Round(time.Millisecond))

	if n := len(multierr.Errors(failed)); n > 0 {
		return fmt.Errorf("%d of %d files failed: %w", n, len(files), failed)
	}
	return nil
}
