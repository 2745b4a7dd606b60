package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/okarpov/claimlens/internal/model"
)

// Verifier runs a complete verification over one document
type Verifier interface {
	Analyze(ctx context.Context, text, userID string) (*model.VerificationRun, error)
}

// AnalyzeJob verifies one document read from a file
type AnalyzeJob struct {
	Path     string
	Verifier Verifier
}

// Execute reads the document and runs verification
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &AnalyzeResult{Path: j.Path, Error: fmt.Errorf("read document: %w", err)}
	}

	run, err := j.Verifier.Analyze(ctx, string(data), "")
	if err != nil {
		return &AnalyzeResult{Path: j.Path, Error: err}
	}
	return &AnalyzeResult{Path: j.Path, Run: run}
}

// AnalyzeResult is the outcome of one batch document
type AnalyzeResult struct {
	Path  string
	Run   *model.VerificationRun
	Error error
}

// GetError returns the job error, if any
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple documents concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessPaths verifies the documents at the given paths concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*AnalyzeResult {
	if len(paths) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&AnalyzeJob{Path: path, Verifier: b.verifier})
	}

	results := pool.Wait()

	analyzeResults := make([]*AnalyzeResult, len(results))
	for i, result := range results {
		analyzeResults[i] = result.(*AnalyzeResult)
	}
	return analyzeResults
}

// ProcessFile reads document paths from a list file (one per line) and
// verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*AnalyzeResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read path list: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads file paths from a list file, skipping blanks,
// comments, and duplicates
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
