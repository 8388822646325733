package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/ledger"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/ofx"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// importBatchSize is the number of transactions stored per database round
// trip while the progress bar advances.
const importBatchSize = 100

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from bank files",
	}

	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importOFXCmd() *cobra.Command {
	var (
		dryRun   bool
		category string
	)

	cmd := &cobra.Command{
		Use:   "ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from
your bank. Rows seen in an earlier import are skipped, so re-running an
import is safe.

Examples:
  # Import a single file
  tally import ofx ~/Downloads/checking_jan.qfx

  # Import everything a bank handed you
  tally import ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportOFX(cmd, args, dryRun, category)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Preview the import without saving")
	cmd.Flags().StringVar(&category, "category", "", "Assign every imported transaction this category (id or name)")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string, dryRun bool, category string) error {
	ctx := cmd.Context()

	files, err := expandFileArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("Importing OFX files", "file_count", len(files), "dry_run", dryRun)

	// Parse every file concurrently; results keep the argument order so
	// deduplication below is deterministic.
	parser := ofx.NewParser()
	results := make([][]model.Transaction, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			f, openErr := os.Open(path)
			if openErr != nil {
				return fmt.Errorf("failed to open %s: %w", path, openErr)
			}
			defer f.Close()

			txns, parseErr := parser.ParseFile(gctx, f)
			if parseErr != nil {
				return fmt.Errorf("failed to parse %s: %w", path, parseErr)
			}
			results[i] = txns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	seen := make(map[string]bool)
	var pending []model.Transaction
	for i, path := range files {
		added := 0
		for _, txn := range results[i] {
			if txn.ImportHash != "" && seen[txn.ImportHash] {
				continue
			}
			seen[txn.ImportHash] = true
			pending = append(pending, txn)
			added++
		}
		slog.Info("Parsed file",
			"file", filepath.Base(path),
			"transactions", len(results[i]),
			"added", added,
			"duplicates", len(results[i])-added)
	}

	if len(pending) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	if dryRun {
		fmt.Println(cli.RenderBox("Import Preview", summarizeImport(len(files), pending)))
		fmt.Println(cli.FormatInfo("Dry run complete - nothing saved"))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if category != "" {
		cat, resolveErr := lookupCategory(ctx, store, category)
		if resolveErr != nil {
			return resolveErr
		}
		for i := range pending {
			pending[i].CategoryID = &cat.ID
		}
	}

	bar := newImportProgressBar(len(pending))
	svc := ledger.New(store)

	var imported int64
	for start := 0; start < len(pending); start += importBatchSize {
		end := min(start+importBatchSize, len(pending))
		n, importErr := svc.ImportTransactions(ctx, pending[start:end])
		if importErr != nil {
			return fmt.Errorf("failed to import transactions: %w", importErr)
		}
		imported += n
		_ = bar.Add(end - start)
	}

	skipped := int64(len(pending)) - imported
	fmt.Println(cli.RenderBox("Import Complete", fmt.Sprintf(
		"Files:      %d\nParsed:     %d\nImported:   %d\nDuplicates: %d",
		len(files), len(pending), imported, skipped)))

	return nil
}

// expandFileArgs expands glob patterns in args into a flat file list.
// Patterns that match nothing but name a real file pass through; anything
// else logs a warning and is skipped.
func expandFileArgs(args []string) ([]string, error) {
	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			files = append(files, matches...)
		}
	}
	return files, nil
}

// summarizeImport describes what an import run would store.
func summarizeImport(fileCount int, txns []model.Transaction) string {
	var oldest, newest time.Time
	var total float64
	for i, txn := range txns {
		if i == 0 || txn.Date.Before(oldest) {
			oldest = txn.Date
		}
		if i == 0 || txn.Date.After(newest) {
			newest = txn.Date
		}
		total += txn.Amount
	}

	return fmt.Sprintf("Files:        %d\nTransactions: %d\nDate range:   %s to %s\nNet amount:   %s",
		fileCount, len(txns),
		oldest.Format("2006-01-02"), newest.Format("2006-01-02"),
		formatMoney(total))
}

// newImportProgressBar builds the progress bar shown while transactions are
// stored.
func newImportProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stdout)
		}),
	)
}
