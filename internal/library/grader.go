package library

import (
	"context"

	"chandler/pkg/llm"
	"chandler/pkg/logging"
)

// defaultRelevanceThreshold is the minimum rerank score a document needs to
// survive grading.
const defaultRelevanceThreshold = 0.5

// Grader drops retrieved documents a reranker judges irrelevant to the query.
// Grading is advisory: with no reranker configured, or when the rerank call
// fails, every document is kept.
type Grader struct {
	reranker  llm.RerankClient
	threshold float64
	logger    logging.Logger
}

// NewGrader creates a grader. reranker may be nil to disable grading.
func NewGrader(reranker llm.RerankClient, logger logging.Logger) *Grader {
	return &Grader{
		reranker:  reranker,
		threshold: defaultRelevanceThreshold,
		logger:    logger,
	}
}

// Filter returns the documents scoring above the threshold, in descending
// score order.
func (g *Grader) Filter(ctx context.Context, query string, documents []Document) []Document {
	if g == nil || g.reranker == nil || len(documents) == 0 {
		return documents
	}

	texts := make([]string, len(documents))
	for i, doc := range documents {
		texts[i] = doc.Text
	}

	results, err := g.reranker.Rerank(ctx, query, texts)
	if err != nil {
		if g.logger != nil {
			g.logger.WithError(err).Warn("Rerank failed, keeping all documents")
		}
		return documents
	}

	var kept []Document
	for _, result := range results {
		if result.RelevanceScore <= g.threshold {
			continue
		}
		if result.Index < 0 || result.Index >= len(documents) {
			continue
		}
		doc := documents[result.Index]
		doc.Similarity = result.RelevanceScore
		kept = append(kept, doc)
	}
	return kept
}
