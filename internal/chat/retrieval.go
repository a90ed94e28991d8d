package chat

import (
	"context"

	"chandler/internal/gateway"
	"chandler/internal/metering"
	"chandler/pkg/logging"
)

const (
	maxCallsPerBatch  = 3
	maxRetrievalLoops = 3
)

// Retriever runs the plan/execute loop: ask the planner for a batch, dispatch
// it through the gateway, feed the results back, and repeat until the planner
// stops or the loop budget runs out.
type Retriever struct {
	planner *Planner
	gateway *gateway.Gateway
	logger  logging.Logger
}

// NewRetriever wires a retriever to its planner and gateway.
func NewRetriever(planner *Planner, gw *gateway.Gateway, logger logging.Logger) *Retriever {
	return &Retriever{planner: planner, gateway: gw, logger: logger}
}

// Retrieve collects tool results for the query.
func (r *Retriever) Retrieve(ctx context.Context, history *History, query string) ([]gateway.ToolResult, error) {
	var results []gateway.ToolResult

	for loop := 0; loop < maxRetrievalLoops; loop++ {
		batch, err := r.plan(ctx, history, query, results)
		if err != nil {
			return nil, err
		}
		if len(batch.Calls) == 0 {
			break
		}

		batchResults := r.gateway.ExecuteBatch(ctx, batch)
		for _, call := range batch.Calls {
			metering.RecordToolCall(ctx, call.Tool)
		}
		results = append(results, batchResults...)

		r.logger.WithFields(logging.Fields{
			"loop":  loop + 1,
			"calls": len(batch.Calls),
		}).Debug("Executed retrieval batch")

		if !batch.ShouldContinue {
			break
		}
	}

	return results, nil
}

func (r *Retriever) plan(ctx context.Context, history *History, query string, results []gateway.ToolResult) (gateway.BatchToolCall, error) {
	planCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()
	return r.planner.Plan(planCtx, history, query, results)
}
