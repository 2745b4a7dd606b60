package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okarpov/claimlens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple documents from a path list in parallel",
	Long: `Batch verifies multiple documents concurrently:
- Read document paths from the input file (one per line)
- Verify documents in parallel with a configurable worker count
- Write one JSON report per document

Example:
  claimlens batch documents.txt
  claimlens batch documents.txt --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the runs")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	application, err := buildApp(ctx, cfg, nil, !noStore)
	if err != nil {
		return err
	}
	defer application.close()

	processor := worker.NewBatchProcessor(application.engine, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading document paths from %s...\n", file)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}
		successCount++

		reportPath := filepath.Join(outputDir, reportName(result.Path))
		if err := writeRun(result.Run, reportPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s (score: %d/100, %s)\n", result.Path, result.Run.TrustScore, result.Run.Label)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d documents, %d verified, %d failed\n",
		len(results), successCount, failureCount)
	fmt.Fprintf(os.Stderr, "Reports: %s\n", outputDir)

	return nil
}

// reportName derives the report file name from the document path
func reportName(docPath string) string {
	base := filepath.Base(docPath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if len(base) > 100 {
		base = base[:100]
	}
	return base + ".report.json"
}
