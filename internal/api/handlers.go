package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"marketscope/internal/agents"
	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/knowledge"
	"marketscope/internal/domain/report"
	"marketscope/internal/domain/research"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
	"marketscope/internal/services/assistant"
	knowledgesvc "marketscope/internal/services/knowledge"
	reportsvc "marketscope/internal/services/report"
	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

const defaultListLimit = 50

// Handlers bundles the HTTP handlers over the research services
type Handlers struct {
	queries      research.Repository
	reports      report.Repository
	sentiments   sentiment.Repository
	competitors  competitor.Repository
	trends       trend.Repository
	orchestrator *agents.Orchestrator
	producers    map[agents.Kind]agents.Producer
	aggregator   *agents.InsightAggregator
	knowledge    *knowledgesvc.Service
	renderer     *reportsvc.Renderer
	assistant    *assistant.Service
	log          *logger.Logger
}

// NewHandlers creates the handler set
func NewHandlers(
	queries research.Repository,
	reports report.Repository,
	sentiments sentiment.Repository,
	competitors competitor.Repository,
	trends trend.Repository,
	orchestrator *agents.Orchestrator,
	producers []agents.Producer,
	aggregator *agents.InsightAggregator,
	knowledgeService *knowledgesvc.Service,
	renderer *reportsvc.Renderer,
	assistantService *assistant.Service,
) *Handlers {
	byKind := make(map[agents.Kind]agents.Producer, len(producers))
	for _, p := range producers {
		byKind[p.Kind()] = p
	}
	return &Handlers{
		queries:      queries,
		reports:      reports,
		sentiments:   sentiments,
		competitors:  competitors,
		trends:       trends,
		orchestrator: orchestrator,
		producers:    byKind,
		aggregator:   aggregator,
		knowledge:    knowledgeService,
		renderer:     renderer,
		assistant:    assistantService,
		log:          logger.Get().With("component", "api"),
	}
}

type createQueryRequest struct {
	SubjectText string               `json:"subject_text"`
	SubjectType research.SubjectType `json:"subject_type"`
	OwnerID     uuid.UUID            `json:"owner_id"`
}

type queryResponse struct {
	ID          uuid.UUID            `json:"id"`
	SubjectText string               `json:"subject_text"`
	SubjectType research.SubjectType `json:"subject_type"`
	Status      research.Status      `json:"status"`
	OwnerID     uuid.UUID            `json:"owner_id"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

func toQueryResponse(q *research.Query) queryResponse {
	return queryResponse{
		ID:          q.ID,
		SubjectText: q.SubjectText,
		SubjectType: q.SubjectType,
		Status:      q.Status,
		OwnerID:     q.OwnerID,
		CreatedAt:   q.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   q.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleCreateQuery registers a new research query in pending state
func (h *Handlers) HandleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var req createQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "invalid request body"))
		return
	}
	if req.SubjectText == "" {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "subject_text is required"))
		return
	}
	if !req.SubjectType.Valid() {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "subject_type must be product or company"))
		return
	}

	now := time.Now().UTC()
	query := &research.Query{
		ID:          uuid.New(),
		SubjectText: req.SubjectText,
		SubjectType: req.SubjectType,
		Status:      research.StatusPending,
		OwnerID:     req.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.queries.Create(r.Context(), query); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toQueryResponse(query))
}

// HandleGetQuery returns one query by ID
func (h *Handlers) HandleGetQuery(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	query, err := h.queries.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":  toQueryResponse(query),
		"counts": h.recordCounts(r.Context(), id),
	})
}

// recordCounts reports how many rows each agent has stored so far. Count
// failures degrade to zero rather than failing the status poll.
func (h *Handlers) recordCounts(ctx context.Context, queryID uuid.UUID) map[string]int {
	counts := make(map[string]int, 3)
	for name, count := range map[string]func(context.Context, uuid.UUID) (int, error){
		"sentiment":   h.sentiments.CountByQuery,
		"competitors": h.competitors.CountByQuery,
		"trends":      h.trends.CountByQuery,
	} {
		n, err := count(ctx, queryID)
		if err != nil {
			h.log.Warnw("Failed to count records", "table", name, "query_id", queryID, "error", err)
		}
		counts[name] = n
	}
	return counts
}

// HandleListQueries lists queries for an owner, newest first
func (h *Handlers) HandleListQueries(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "owner_id query parameter is required"))
		return
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	queries, err := h.queries.ListByOwner(r.Context(), ownerID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]queryResponse, 0, len(queries))
	for i := range queries {
		out = append(out, toQueryResponse(&queries[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queries": out})
}

// HandleDeleteQuery removes a query and every derived row
func (h *Handlers) HandleDeleteQuery(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.queries.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type runRequest struct {
	QueryID uuid.UUID `json:"query_id"`
	Wait    bool      `json:"wait"`
}

// HandleRunResearch starts the full pipeline for a query. By default the run
// executes in the background and progress is observable through the query
// status and the websocket feed; with "wait": true the handler blocks and
// returns the run outcome.
func (h *Handlers) HandleRunResearch(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QueryID == uuid.Nil {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "query_id is required"))
		return
	}

	// Validate existence before accepting the run
	if _, err := h.queries.GetByID(r.Context(), req.QueryID); err != nil {
		writeError(w, err)
		return
	}

	if req.Wait {
		result, err := h.orchestrator.Run(r.Context(), req.QueryID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":       result.Success,
			"failed_agents": result.FailedAgents,
			"total_agents":  result.TotalAgents,
		})
		return
	}

	go func() {
		if _, err := h.orchestrator.Run(contextWithoutCancel(r), req.QueryID); err != nil {
			h.log.Errorw("Background pipeline run failed", "query_id", req.QueryID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"query_id": req.QueryID,
		"status":   research.StatusProcessing,
	})
}

// HandleRunAgent runs a single producer agent synchronously
func (h *Handlers) HandleRunAgent(w http.ResponseWriter, r *http.Request) {
	kind := agents.Kind(r.PathValue("kind"))
	producer, ok := h.producers[kind]
	if !ok {
		writeError(w, errors.Wrapf(errors.ErrInvalidInput, "unknown agent kind %q", kind))
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QueryID == uuid.Nil {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "query_id is required"))
		return
	}

	query, err := h.queries.GetByID(r.Context(), req.QueryID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := producer.Run(r.Context(), agents.Input{
		QueryID:     query.ID,
		SubjectText: query.SubjectText,
		SubjectType: query.SubjectType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleRunInsights runs the insight aggregator synchronously
func (h *Handlers) HandleRunInsights(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QueryID == uuid.Nil {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "query_id is required"))
		return
	}

	query, err := h.queries.GetByID(r.Context(), req.QueryID)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.aggregator.Aggregate(r.Context(), agents.Input{
		QueryID:     query.ID,
		SubjectText: query.SubjectText,
		SubjectType: query.SubjectType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"insights":        len(rep.Insights),
		"recommendations": len(rep.Recommendations),
	})
}

// HandleGetReport returns the stored report for a query
func (h *Handlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.reports.GetByQuery(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleRenderReport renders the report document and returns its URL
func (h *Handlers) HandleRenderReport(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QueryID == uuid.Nil {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "query_id is required"))
		return
	}

	url, err := h.renderer.Render(r.Context(), req.QueryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"document_url": url,
	})
}

type knowledgeSearchRequest struct {
	QueryID  uuid.UUID `json:"query_id"`
	Question string    `json:"question"`
	Limit    int       `json:"limit"`
}

type knowledgeMatchResponse struct {
	Content    string             `json:"content"`
	Similarity float64            `json:"similarity"`
	Metadata   knowledge.Metadata `json:"metadata,omitempty"`
}

// HandleKnowledgeSearch runs a similarity search over the query's chunks
func (h *Handlers) HandleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	var req knowledgeSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QueryID == uuid.Nil || req.Question == "" {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "query_id and question are required"))
		return
	}

	matches, err := h.knowledge.Search(r.Context(), req.QueryID, req.Question, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]knowledgeMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, knowledgeMatchResponse{
			Content:    m.Content,
			Similarity: m.Similarity,
			Metadata:   m.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": out})
}

type assistantRequest struct {
	Message string     `json:"message"`
	QueryID *uuid.UUID `json:"query_id,omitempty"`
}

// HandleAssistant answers a free-form question, optionally grounded in one
// query's research data
func (h *Handlers) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, errors.Wrap(errors.ErrInvalidInput, "message is required"))
		return
	}

	reply, err := h.assistant.Ask(r.Context(), req.QueryID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// contextWithoutCancel detaches the background run from the request's
// lifetime while keeping its values
func contextWithoutCancel(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errors.Wrapf(errors.ErrInvalidInput, "invalid %s", name)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps sentinel errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound), errors.Is(err, errors.ErrQueryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, errors.ErrNoProviderConfigured), errors.Is(err, errors.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
