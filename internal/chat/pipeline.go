package chat

import (
	"context"
	"fmt"
	"time"

	"chandler/internal/gateway"
	"chandler/pkg/llm"
	"chandler/pkg/logging"
)

const (
	// llmCallTimeout bounds each individual model call so a single stalled
	// completion cannot consume the whole turn budget.
	llmCallTimeout = 45 * time.Second

	maxGenerationAttempts = 3
)

// Pipeline runs one conversation's turns: scope gate, retrieval loop, then
// the generate/validate loop. Not safe for concurrent use; the registry
// serializes turns per conversation.
type Pipeline struct {
	analyzer  *Analyzer
	retriever *Retriever
	generator *Generator
	validator *Validator
	history   *History
	logger    logging.Logger
}

// Deps bundles the stage implementations a pipeline runs over.
type Deps struct {
	Structured llm.StructuredClient
	Provider   llm.Provider
	Gateway    *gateway.Gateway
	Logger     logging.Logger
}

// NewPipeline creates a pipeline with a fresh history.
func NewPipeline(deps Deps) *Pipeline {
	return &Pipeline{
		analyzer:  NewAnalyzer(deps.Structured),
		retriever: NewRetriever(NewPlanner(deps.Structured), deps.Gateway, deps.Logger),
		generator: NewGenerator(deps.Provider),
		validator: NewValidator(deps.Structured),
		history:   NewHistory(),
		logger:    deps.Logger,
	}
}

// History exposes the conversation transcript.
func (p *Pipeline) History() *History {
	return p.history
}

// Reset clears the conversation back to the introduction and returns it.
func (p *Pipeline) Reset() string {
	return p.history.Reset()
}

// Regenerate rewinds the conversation to just before the given query and
// answers it again from scratch.
func (p *Pipeline) Regenerate(ctx context.Context, query string) (string, error) {
	p.history.TruncateToBefore(query)
	return p.ProcessQuery(ctx, query)
}

// ProcessQuery answers one user query and records both sides of the exchange
// in the history. The returned string is always a presentable answer; a
// non-nil error means the turn failed and no answer was recorded.
func (p *Pipeline) ProcessQuery(ctx context.Context, query string) (string, error) {
	p.history.Append(RoleUser, query)

	analysis, err := p.analyze(ctx, query)
	if err != nil {
		return "", fmt.Errorf("analyze query: %w", err)
	}

	if !analysis.InScope {
		p.history.Append(RoleAssistant, ScopeRejectionMessage)
		return ScopeRejectionMessage, nil
	}

	var results []gateway.ToolResult
	if analysis.NeedsRetrieval {
		results, err = p.retriever.Retrieve(ctx, p.history, query)
		if err != nil {
			return "", fmt.Errorf("retrieve context: %w", err)
		}
	}

	answer, err := p.generateAndValidate(ctx, query, results)
	if err != nil {
		return "", err
	}

	p.history.Append(RoleAssistant, answer)
	return answer, nil
}

// generateAndValidate drafts answers until one passes validation or the
// attempt budget runs out. Feedback from a failed attempt is folded into the
// next attempt's context; a failure without feedback is accepted as-is since
// there is nothing actionable to revise.
func (p *Pipeline) generateAndValidate(ctx context.Context, query string, results []gateway.ToolResult) (string, error) {
	var answer string

	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		var err error
		answer, err = p.generate(ctx, query, results)
		if err != nil {
			return "", fmt.Errorf("generate response: %w", err)
		}

		verdict, err := p.validate(ctx, query, answer, results)
		if err != nil {
			return "", fmt.Errorf("validate response: %w", err)
		}

		if verdict.Passed() {
			generationAttempts.Observe(float64(attempt))
			return answer, nil
		}
		if verdict.Feedback == "" {
			p.logger.WithField("attempt", attempt).Warn("Response rejected without feedback, keeping it")
			break
		}

		p.logger.WithFields(logging.Fields{
			"attempt":  attempt,
			"feedback": verdict.Feedback,
		}).Info("Response rejected, regenerating")
		results = append(results, FeedbackResult(answer, verdict.Feedback))
	}

	generationAttempts.Observe(float64(maxGenerationAttempts))
	return answer, nil
}

func (p *Pipeline) analyze(ctx context.Context, query string) (QueryAnalysis, error) {
	callCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()
	return p.analyzer.Analyze(callCtx, p.history, query)
}

func (p *Pipeline) generate(ctx context.Context, query string, results []gateway.ToolResult) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()
	return p.generator.Generate(callCtx, p.history, query, results)
}

func (p *Pipeline) validate(ctx context.Context, query, answer string, results []gateway.ToolResult) (Validation, error) {
	callCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()
	return p.validator.Validate(callCtx, query, answer, results)
}
