package evidence

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/okarpov/claimlens/internal/model"
)

// Gatherer runs the per-claim evidence fan-out: knowledge-base lookups for
// the claim's entities and a web search on its query, concurrently. Both
// branches tolerate total failure; the verdict engine treats "no evidence"
// as lack of support, not as an error.
type Gatherer struct {
	knowledge   *KnowledgeClient
	search      *SearchClient
	enricher    *PageEnricher
	maxEntities int
	enrichTop   bool
	log         *zap.Logger
}

// NewGatherer creates a gatherer
func NewGatherer(knowledge *KnowledgeClient, search *SearchClient, enricher *PageEnricher, maxEntities int, enrichTop bool, log *zap.Logger) *Gatherer {
	if maxEntities <= 0 {
		maxEntities = 3
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gatherer{
		knowledge:   knowledge,
		search:      search,
		enricher:    enricher,
		maxEntities: maxEntities,
		enrichTop:   enrichTop,
		log:         log,
	}
}

// Gather collects evidence for one analyzed claim. Never returns an error:
// partial or total lookup failure yields fewer (possibly zero) items.
func (g *Gatherer) Gather(ctx context.Context, analysis model.ClaimAnalysis) []model.Evidence {
	var kbResults []model.Evidence
	var webResults []model.Evidence

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		kbResults = g.gatherKnowledge(egCtx, analysis.Entities)
		return nil
	})

	eg.Go(func() error {
		webResults = g.gatherWeb(egCtx, analysis.SearchQuery)
		return nil
	})

	// Branches never return errors; Wait is the join barrier.
	_ = eg.Wait()

	return append(kbResults, webResults...)
}

func (g *Gatherer) gatherKnowledge(ctx context.Context, entities []string) []model.Evidence {
	var out []model.Evidence

	for i, entity := range entities {
		if i >= g.maxEntities {
			break
		}
		if ctx.Err() != nil {
			break
		}

		ev, err := g.knowledge.Lookup(ctx, entity)
		if err != nil || ev == nil {
			continue
		}
		out = append(out, *ev)
	}
	return out
}

func (g *Gatherer) gatherWeb(ctx context.Context, query string) []model.Evidence {
	hits := g.search.Search(ctx, query)
	if len(hits) == 0 {
		return hits
	}

	if g.enrichTop && g.enricher != nil {
		if extract := g.enricher.Enrich(ctx, hits[0]); extract != nil {
			hits = append(hits, *extract)
		}
	}
	return hits
}
