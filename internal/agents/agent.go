// Package agents implements the research pipeline: three producer agents
// that collect evidence about a subject, an insight aggregator that turns
// the collected rows into an executive report, and the orchestrator that
// drives a query through its lifecycle.
//
// Every producer works through tiers: a live external signal when its
// credentials are configured, a generative model otherwise, and a fixed
// placeholder dataset as the unconditional last resort. A producer therefore
// always persists at least one row and reports success.
package agents

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"marketscope/internal/domain/research"
	"marketscope/pkg/errors"
)

// Kind identifies a producer agent
type Kind string

const (
	KindSentiment  Kind = "sentiment"
	KindCompetitor Kind = "competitor"
	KindTrend      Kind = "trend"
)

// Valid checks if the kind is known
func (k Kind) Valid() bool {
	switch k {
	case KindSentiment, KindCompetitor, KindTrend:
		return true
	}
	return false
}

// Input carries the query context every agent receives
type Input struct {
	QueryID     uuid.UUID            `json:"query_id"`
	SubjectText string               `json:"subject_text"`
	SubjectType research.SubjectType `json:"subject_type"`
}

// Result is the uniform outcome of an agent run
type Result struct {
	Success    bool                `json:"success"`
	Count      int                 `json:"count"`
	Provenance research.Provenance `json:"provenance"`
}

// Producer is a single research agent. Run gathers evidence for the input
// subject and persists it; it only returns an error when even the
// placeholder tier could not be stored.
type Producer interface {
	Kind() Kind
	Run(ctx context.Context, input Input) (*Result, error)
}

// Tier-internal sentinel failures. They never leave a producer: each one
// only moves the run to the next tier down.
var (
	errNoLiveSignal       = errors.New("live tier returned no usable signal")
	errEmptyModelResponse = errors.New("model returned an empty result set")
	errNothingStored      = errors.New("no records could be stored")
)

// decodeModelJSON parses a model response into dest, repairing malformed
// JSON first. Model output routinely arrives with markdown fences or
// trailing commas.
func decodeModelJSON(raw string, dest interface{}) error {
	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return errors.Wrap(errors.ErrUnparseableResponse, err.Error())
	}
	if err := json.Unmarshal([]byte(repaired), dest); err != nil {
		return errors.Wrap(errors.ErrUnparseableResponse, err.Error())
	}
	return nil
}

// subjectNoun renders the subject type for prompts
func subjectNoun(t research.SubjectType) string {
	if t == research.SubjectCompany {
		return "company"
	}
	return "product"
}
