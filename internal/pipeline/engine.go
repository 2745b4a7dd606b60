// Package pipeline orchestrates end-to-end verification: claim extraction,
// per-claim analysis, evidence fan-out, verdict rendering, and trust
// aggregation. One Analyze call produces one immutable VerificationRun.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/events"
	"github.com/okarpov/claimlens/internal/evidence"
	"github.com/okarpov/claimlens/internal/extract"
	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/score"
	"github.com/okarpov/claimlens/internal/stats"
	"github.com/okarpov/claimlens/internal/store"
	"github.com/okarpov/claimlens/internal/validate"
	"github.com/okarpov/claimlens/internal/verdict"
	"github.com/okarpov/claimlens/internal/worker"
)

// ErrInputTooShort rejects documents below the minimum length before any
// provider call is made.
type ErrInputTooShort struct {
	Got, Min int
}

func (e *ErrInputTooShort) Error() string {
	return fmt.Sprintf("input too short: %d characters, minimum is %d", e.Got, e.Min)
}

// Engine is the verification orchestrator. All collaborators are injected;
// tests swap in fakes behind the same constructors.
type Engine struct {
	splitter   *extract.ClaimSplitter
	analyzer   *extract.Analyzer
	gatherer   *evidence.Gatherer
	judge      *verdict.Engine
	aggregator *score.Aggregator
	citations  *validate.CitationChecker
	store      store.Store
	sink       events.Sink
	collector  *stats.Collector
	log        *zap.Logger

	maxConcurrent int
	minInputChars int
}

// Options bundles the engine's collaborators
type Options struct {
	Splitter   *extract.ClaimSplitter
	Analyzer   *extract.Analyzer
	Gatherer   *evidence.Gatherer
	Judge      *verdict.Engine
	Aggregator *score.Aggregator
	Citations  *validate.CitationChecker
	Store      store.Store
	Sink       events.Sink
	Collector  *stats.Collector
	Logger     *zap.Logger

	MaxConcurrentClaims int
	MinInputChars       int
}

// NewEngine creates a verification engine
func NewEngine(opts Options) *Engine {
	if opts.Sink == nil {
		opts.Sink = events.NopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Aggregator == nil {
		opts.Aggregator = score.NewAggregator()
	}
	if opts.MaxConcurrentClaims <= 0 {
		opts.MaxConcurrentClaims = 5
	}
	if opts.MinInputChars <= 0 {
		opts.MinInputChars = 50
	}

	return &Engine{
		splitter:      opts.Splitter,
		analyzer:      opts.Analyzer,
		gatherer:      opts.Gatherer,
		judge:         opts.Judge,
		aggregator:    opts.Aggregator,
		citations:     opts.Citations,
		store:         opts.Store,
		sink:          opts.Sink,
		collector:     opts.Collector,
		log:           opts.Logger,
		maxConcurrent: opts.MaxConcurrentClaims,
		minInputChars: opts.MinInputChars,
	}
}

// claimJob carries one claim through analysis, evidence, and verdict. Jobs
// run concurrently in the worker pool; results are joined by claim ID.
type claimJob struct {
	engine *Engine
	claim  model.Claim
}

type claimResult struct {
	result model.ClaimResult
	err    error
}

func (r claimResult) GetError() error { return r.err }

func (j claimJob) Execute(ctx context.Context) worker.Result {
	return claimResult{result: j.engine.verifyClaim(ctx, j.claim)}
}

// Analyze verifies one document and returns the complete run. Provider
// unavailability degrades the run (conservative verdicts, fallback
// extraction) but never fails it; only invalid input or context cancellation
// before work starts yields an error.
func (e *Engine) Analyze(ctx context.Context, text, userID string) (*model.VerificationRun, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < e.minInputChars {
		return nil, &ErrInputTooShort{Got: len(trimmed), Min: e.minInputChars}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	started := time.Now().UTC()
	e.log.Info("verification started",
		zap.String("run_id", runID),
		zap.Int("input_chars", len(trimmed)))

	claims := e.splitter.Split(ctx, trimmed)
	e.emit("run_progress", runID, "", fmt.Sprintf("extracted %d claims", len(claims)), "extracted")

	results := e.verifyClaims(ctx, claims)

	verdicts := make([]model.Verdict, len(results))
	for i, cr := range results {
		verdicts[i] = cr.Verdict
	}
	trust := e.aggregator.Aggregate(verdicts)

	run := &model.VerificationRun{
		RunID:        runID,
		UserID:       userID,
		InputText:    trimmed,
		CreatedAt:    started,
		Claims:       results,
		TrustScore:   trust.Score,
		Label:        trust.Label,
		Summary:      trust.Summary,
		Sources:      collectSources(results),
		VerifiedText: BuildVerifiedText(trimmed, results),
	}

	e.persist(ctx, run)
	e.emit("run_complete", runID, "", trust.Summary, "complete")
	e.log.Info("verification finished",
		zap.String("run_id", runID),
		zap.Int("claims", len(results)),
		zap.Int("trust_score", trust.Score),
		zap.String("label", trust.Label),
		zap.Duration("elapsed", time.Since(started)))

	return run, nil
}

// verifyClaims fans claims out over the worker pool and joins results back
// into the original claim order.
func (e *Engine) verifyClaims(ctx context.Context, claims []model.Claim) []model.ClaimResult {
	if len(claims) == 0 {
		return nil
	}

	workers := e.maxConcurrent
	if len(claims) < workers {
		workers = len(claims)
	}

	pool := worker.NewPool(ctx, workers)
	pool.Start()
	for _, c := range claims {
		pool.Submit(claimJob{engine: e, claim: c})
	}
	raw := pool.Wait()

	// Pool results arrive in completion order; rejoin by claim ID so the run
	// preserves document order.
	byID := make(map[string]model.ClaimResult, len(raw))
	for _, r := range raw {
		cr, ok := r.(claimResult)
		if !ok {
			continue
		}
		byID[cr.result.Claim.ID] = cr.result
	}

	results := make([]model.ClaimResult, 0, len(claims))
	for _, c := range claims {
		if cr, ok := byID[c.ID]; ok {
			results = append(results, cr)
		}
	}
	return results
}

// verifyClaim runs the per-claim sequence: analyze, gather, judge. Each
// stage transition is mirrored to the event sink.
func (e *Engine) verifyClaim(ctx context.Context, claim model.Claim) model.ClaimResult {
	e.emit("claim_state", "", claim.ID, claim.Text, string(model.StateAnalyzing))
	analysis := e.analyzer.Analyze(ctx, claim)

	evidences := e.gatherer.Gather(ctx, analysis)
	for i := range evidences {
		evidences[i].Authority = validate.ClassifyAuthority(evidences[i].URL, evidences[i].Authority)
	}
	e.emit("claim_state", "", claim.ID,
		fmt.Sprintf("%d evidence items", len(evidences)), string(model.StateEvidenceGathered))

	v := e.judge.Judge(ctx, claim, analysis, evidences)
	e.emit("claim_state", "", claim.ID, v.Reason, string(model.StateVerdicted))

	return model.ClaimResult{
		Claim:    claim,
		Verdict:  v,
		Evidence: evidences,
		State:    model.StateVerdicted,
	}
}

// persist saves the run. Storage failure is logged and swallowed: the caller
// already holds the full result and verification must not depend on disk.
func (e *Engine) persist(ctx context.Context, run *model.VerificationRun) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, run); err != nil {
		e.log.Warn("run persistence failed", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

// Claims returns the claim results of a stored run
func (e *Engine) Claims(ctx context.Context, runID string) ([]model.ClaimResult, error) {
	if e.store == nil {
		return nil, store.ErrNotFound
	}
	run, err := e.store.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return run.Claims, nil
}

// Evidence returns the evidence of one stored claim along with citation
// accessibility checks.
func (e *Engine) Evidence(ctx context.Context, claimID string) ([]model.Evidence, []model.CitationCheck, error) {
	if e.store == nil {
		return nil, nil, store.ErrNotFound
	}
	run, err := e.store.FindByClaim(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}

	for _, cr := range run.Claims {
		if cr.Claim.ID != claimID {
			continue
		}
		var checks []model.CitationCheck
		if e.citations != nil {
			checks = e.citations.Check(ctx, cr.Evidence)
		}
		return cr.Evidence, checks, nil
	}
	return nil, nil, store.ErrNotFound
}

// VerifiedText returns the cleaned text of a stored run together with the
// claims whose sentences were removed from it.
func (e *Engine) VerifiedText(ctx context.Context, runID string) (string, []model.Claim, error) {
	if e.store == nil {
		return "", nil, store.ErrNotFound
	}
	run, err := e.store.FindByID(ctx, runID)
	if err != nil {
		return "", nil, err
	}

	var removed []model.Claim
	for _, cr := range run.Claims {
		if cr.Verdict.Status == model.StatusHallucinated {
			removed = append(removed, cr.Claim)
		}
	}
	return run.VerifiedText, removed, nil
}

// Stats returns the provider counter snapshot
func (e *Engine) Stats() []model.ProviderStats {
	if e.collector == nil {
		return nil
	}
	return e.collector.Snapshot()
}

func (e *Engine) emit(evtType, runID, claimID, message, status string) {
	msg := message
	if runID != "" {
		msg = fmt.Sprintf("run %s: %s", runID, message)
	}
	e.sink.Emit(events.Event{
		Type:    evtType,
		Message: msg,
		Status:  status,
		ClaimID: claimID,
		At:      time.Now().UTC(),
	})
}

// BuildVerifiedText removes sentences containing hallucinated claims from
// the input. Claims from the sentence-split fallback map 1:1 onto sentences;
// LLM claims are matched back by substring overlap.
func BuildVerifiedText(input string, results []model.ClaimResult) string {
	sentences := extract.SplitSentences(input)
	if len(sentences) == 0 {
		return input
	}

	drop := make(map[int]bool)
	for _, cr := range results {
		if cr.Verdict.Status != model.StatusHallucinated {
			continue
		}
		if cr.Claim.Source == "sentence-split" && cr.Claim.Sentence < len(sentences) {
			drop[cr.Claim.Sentence] = true
			continue
		}
		if idx := matchSentence(sentences, cr.Claim.Text); idx >= 0 {
			drop[idx] = true
		}
	}

	var kept []string
	for i, s := range sentences {
		if !drop[i] {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}

// matchSentence finds the sentence sharing the most significant words with
// the claim, requiring a majority overlap.
func matchSentence(sentences []string, claim string) int {
	claimWords := significantWords(claim)
	if len(claimWords) == 0 {
		return -1
	}

	best, bestOverlap := -1, 0
	for i, s := range sentences {
		sentenceWords := significantWords(s)
		overlap := 0
		for w := range claimWords {
			if sentenceWords[w] {
				overlap++
			}
		}
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}

	if bestOverlap*2 < len(claimWords) {
		return -1
	}
	return best
}

func significantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if len(w) >= 4 {
			words[w] = true
		}
	}
	return words
}

// collectSources deduplicates evidence source titles across all claims,
// dropping empty or stop-word-only titles, sorted for stable output.
func collectSources(results []model.ClaimResult) []string {
	seen := make(map[string]bool)
	var sources []string

	for _, cr := range results {
		for _, ev := range cr.Evidence {
			title := strings.TrimSpace(ev.Source)
			if title == "" || extract.IsStopWordOnly(title) {
				continue
			}
			key := strings.ToLower(title)
			if seen[key] {
				continue
			}
			seen[key] = true
			sources = append(sources, title)
		}
	}

	sort.Strings(sources)
	return sources
}
