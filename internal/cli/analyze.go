package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okarpov/claimlens/internal/model"
)

var (
	outJSON        string
	analyzeTimeout time.Duration
	analyzeUserID  string
	noStore        bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Verify the claims in a document",
	Long: `Analyze verifies a single document:
- Split the text into atomic factual claims
- Gather encyclopedia and web evidence for each claim
- Judge each claim against its evidence
- Aggregate per-claim verdicts into a trust score

Reads from the file argument, or from stdin when no argument is given.

Example:
  claimlens analyze article.txt
  cat article.txt | claimlens analyze
  claimlens analyze article.txt --json report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "write the full run report to this path (default: stdout)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall verification timeout")
	analyzeCmd.Flags().StringVar(&analyzeUserID, "user", "", "user id to record on the run")
	analyzeCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the run")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := buildApp(ctx, cfg, nil, !noStore)
	if err != nil {
		return err
	}
	defer application.close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %d characters...\n", len(text))
	}

	run, err := application.engine.Analyze(ctx, text, analyzeUserID)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Verified %d claims\n", len(run.Claims))
		fmt.Fprintf(os.Stderr, "✓ Trust score: %d/100 (%s)\n", run.TrustScore, run.Label)
		fmt.Fprintln(os.Stderr)
	}

	return writeRun(run, outJSON)
}

// readInput loads the document from the file argument or stdin
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// writeRun renders the run report as JSON to the path or stdout
func writeRun(run *model.VerificationRun, path string) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Report written: %s\n", path)
	}
	return nil
}
