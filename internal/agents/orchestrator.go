package agents

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketscope/internal/adapters/config"
	"marketscope/internal/domain/research"
	"marketscope/internal/metrics"
	"marketscope/pkg/logger"
)

// KnowledgeProcessor chunks and embeds a query's collected rows for
// retrieval. Best-effort from the orchestrator's point of view.
type KnowledgeProcessor interface {
	Process(ctx context.Context, queryID uuid.UUID) (int, error)
}

// DocumentRenderer materializes the stored report into a shareable document
// and attaches its URL to the report row. Best-effort as well.
type DocumentRenderer interface {
	Render(ctx context.Context, queryID uuid.UUID) (string, error)
}

// Outcome is one producer's result inside a pipeline run
type Outcome struct {
	Kind   Kind    `json:"kind"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// RunResult summarizes a full pipeline run
type RunResult struct {
	Success      bool      `json:"success"`
	FailedAgents int       `json:"failed_agents"`
	TotalAgents  int       `json:"total_agents"`
	Outcomes     []Outcome `json:"outcomes"`
}

// Orchestrator drives a research query through its lifecycle: mark it
// processing, fan out the producers, aggregate insights, process knowledge
// chunks, render the document, mark it completed.
//
// Runs are deliberately not idempotent and not mutually exclusive. Invoking
// the orchestrator twice for the same query doubles its derived rows; the
// caller owns deduplication if it wants it.
type Orchestrator struct {
	queries    research.Repository
	feed       research.Feed
	producers  []Producer
	aggregator *InsightAggregator
	knowledge  KnowledgeProcessor
	renderer   DocumentRenderer
	cfg        config.AgentsConfig
	log        *logger.Logger
}

// NewOrchestrator wires the pipeline. knowledge and renderer may be nil;
// their stages are then skipped.
func NewOrchestrator(
	queries research.Repository,
	feed research.Feed,
	producers []Producer,
	aggregator *InsightAggregator,
	knowledge KnowledgeProcessor,
	renderer DocumentRenderer,
	cfg config.AgentsConfig,
) *Orchestrator {
	return &Orchestrator{
		queries:    queries,
		feed:       feed,
		producers:  producers,
		aggregator: aggregator,
		knowledge:  knowledge,
		renderer:   renderer,
		cfg:        cfg,
		log:        logger.Get().With("component", "orchestrator"),
	}
}

// Run executes the full pipeline for the query. A valid query always ends
// in a terminal status: completed when the pipeline ran (even with agent
// failures), failed when the query could not be loaded at all.
func (o *Orchestrator) Run(ctx context.Context, queryID uuid.UUID) (*RunResult, error) {
	started := time.Now()

	query, err := o.queries.GetByID(ctx, queryID)
	if err != nil {
		o.log.Errorw("Query lookup failed", "query_id", queryID, "error", err)
		o.setStatus(ctx, queryID, research.StatusFailed)
		metrics.OrchestratorRuns.WithLabelValues(string(research.StatusFailed)).Inc()
		return nil, err
	}

	input := Input{
		QueryID:     query.ID,
		SubjectText: query.SubjectText,
		SubjectType: query.SubjectType,
	}

	o.log.Infow("Starting research pipeline",
		"query_id", queryID,
		"subject", query.SubjectText,
		"type", query.SubjectType)
	o.setStatus(ctx, queryID, research.StatusProcessing)

	outcomes := o.runProducers(ctx, input)

	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			o.log.Errorw("Producer agent failed",
				"query_id", queryID,
				"agent", out.Kind,
				"error", out.Err)
		}
	}

	// Aggregation runs over whatever the producers managed to store
	o.runAggregation(ctx, input)
	o.runKnowledge(ctx, queryID)
	o.runRenderer(ctx, queryID)

	// Completed even when some agents failed: partial data is still a result
	o.setStatus(ctx, queryID, research.StatusCompleted)

	metrics.OrchestratorRuns.WithLabelValues(string(research.StatusCompleted)).Inc()
	metrics.OrchestratorDuration.Observe(time.Since(started).Seconds())

	o.log.Infow("Research pipeline completed",
		"query_id", queryID,
		"failed_agents", failed,
		"total_agents", len(outcomes),
		"duration", time.Since(started))

	return &RunResult{
		Success:      true,
		FailedAgents: failed,
		TotalAgents:  len(outcomes),
		Outcomes:     outcomes,
	}, nil
}

// runProducers fans out every producer concurrently and waits for all of
// them, collecting one outcome per agent regardless of individual failures
func (o *Orchestrator) runProducers(ctx context.Context, input Input) []Outcome {
	outcomes := make([]Outcome, len(o.producers))

	var wg sync.WaitGroup
	for i, producer := range o.producers {
		wg.Add(1)
		go func(i int, p Producer) {
			defer wg.Done()

			agentCtx, cancel := context.WithTimeout(ctx, o.cfg.AgentTimeout)
			defer cancel()

			started := time.Now()
			result, err := p.Run(agentCtx, input)
			metrics.AgentDuration.WithLabelValues(string(p.Kind())).Observe(time.Since(started).Seconds())

			if err != nil {
				metrics.AgentRuns.WithLabelValues(string(p.Kind()), "none", "error").Inc()
			} else {
				metrics.AgentRuns.WithLabelValues(string(p.Kind()), string(result.Provenance), "ok").Inc()
			}
			outcomes[i] = Outcome{Kind: p.Kind(), Result: result, Err: err}
		}(i, producer)
	}
	wg.Wait()

	return outcomes
}

func (o *Orchestrator) runAggregation(ctx context.Context, input Input) {
	if o.aggregator == nil {
		return
	}
	insightCtx, cancel := context.WithTimeout(ctx, o.cfg.InsightTimeout)
	defer cancel()

	if _, err := o.aggregator.Aggregate(insightCtx, input); err != nil {
		o.log.Errorw("Insight aggregation failed", "query_id", input.QueryID, "error", err)
	}
}

func (o *Orchestrator) runKnowledge(ctx context.Context, queryID uuid.UUID) {
	if o.knowledge == nil {
		return
	}
	chunkCtx, cancel := context.WithTimeout(ctx, o.cfg.InsightTimeout)
	defer cancel()

	count, err := o.knowledge.Process(chunkCtx, queryID)
	if err != nil {
		o.log.Warnw("Knowledge processing failed", "query_id", queryID, "error", err)
		return
	}
	o.log.Infow("Knowledge processing completed", "query_id", queryID, "chunks", count)
}

func (o *Orchestrator) runRenderer(ctx context.Context, queryID uuid.UUID) {
	if o.renderer == nil {
		return
	}
	renderCtx, cancel := context.WithTimeout(ctx, o.cfg.InsightTimeout)
	defer cancel()

	if _, err := o.renderer.Render(renderCtx, queryID); err != nil {
		o.log.Warnw("Document rendering failed", "query_id", queryID, "error", err)
	}
}

// setStatus persists the transition and publishes it to the change feed.
// Both are best-effort: a feed outage must not fail the pipeline.
func (o *Orchestrator) setStatus(ctx context.Context, queryID uuid.UUID, status research.Status) {
	if err := o.queries.UpdateStatus(ctx, queryID, status); err != nil {
		o.log.Errorw("Failed to update query status",
			"query_id", queryID,
			"status", status,
			"error", err)
	}
	if o.feed == nil {
		return
	}
	event := research.StatusEvent{QueryID: queryID, Status: status, OccurredAt: time.Now()}
	if err := o.feed.PublishStatus(ctx, event); err != nil {
		o.log.Warnw("Failed to publish status event",
			"query_id", queryID,
			"status", status,
			"error", err)
	}
}
