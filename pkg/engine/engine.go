// Package engine orchestrates a selection session: score the store snapshot
// against the task, resolve conflicts, pack the survivors into the budget,
// and hand the ordered selection back to the host. Sessions are stateless
// and deterministic; concurrent sessions share only the immutable snapshot.
package engine

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/contextforge/skillet/pkg/budget"
	"github.com/contextforge/skillet/pkg/conflict"
	"github.com/contextforge/skillet/pkg/logger"
	"github.com/contextforge/skillet/pkg/relevance"
	"github.com/contextforge/skillet/pkg/skills"
	"github.com/contextforge/skillet/pkg/telemetry"
	"github.com/contextforge/skillet/pkg/types/selection"
)

// Engine runs selection sessions against a skill store.
type Engine struct {
	store  *skills.Store
	scorer relevance.Scorer
	sizer  budget.Sizer
	config Config
}

// Option is a function that configures an Engine.
type Option func(*Engine)

// WithScorer replaces the baseline token-overlap scorer.
func WithScorer(scorer relevance.Scorer) Option {
	return func(e *Engine) { e.scorer = scorer }
}

// WithSizer replaces the default rune sizer, e.g. with a token sizer.
func WithSizer(sizer budget.Sizer) Option {
	return func(e *Engine) { e.sizer = sizer }
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// New creates an engine over the given store.
func New(store *skills.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		scorer: relevance.NewOverlapScorer(),
		sizer:  budget.RuneSizer{},
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying skill store.
func (e *Engine) Store() *skills.Store {
	return e.store
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Request describes one selection session.
type Request struct {
	// Task is the incoming task description to match skills against.
	Task string `json:"task" jsonschema:"description=The task description to select skills for"`
	// Budget is the maximum total content size of the selection.
	Budget int `json:"budget" jsonschema:"description=Maximum total content size of the selection"`
	// Capability is the host's declared capability tier, matched against
	// each skill's compatibility pattern.
	Capability string `json:"capability,omitempty" jsonschema:"description=Host capability tier"`
}

// Result is the outcome of one session: the bounded selection plus the full
// per-candidate trace.
type Result struct {
	ID        string                 `json:"id"`
	Task      string                 `json:"task"`
	Selection selection.Selection    `json:"selection"`
	Trace     []*selection.Candidate `json:"trace"`
}

// Select runs one selection session. It fails with *EmptyStoreError when the
// snapshot has no records and *InvalidBudgetError when the budget is not
// positive. An empty selection is a valid outcome meaning no skill applies.
//
// The session captures its snapshot once at the start; a concurrent reload
// does not affect it. Two calls with identical arguments against an
// unchanged snapshot return identical selections and traces (the session ID
// differs).
func (e *Engine) Select(ctx context.Context, req Request) (*Result, error) {
	snapshot := e.store.Snapshot()
	if snapshot.Len() == 0 {
		return nil, &EmptyStoreError{}
	}
	if req.Budget <= 0 {
		return nil, &InvalidBudgetError{Budget: req.Budget}
	}

	sessionID := uuid.NewString()
	log := logger.G(ctx).WithField("session_id", sessionID)

	telemetry.SetAttributes(ctx,
		attribute.String("skillet.session_id", sessionID),
		attribute.Int("skillet.budget", req.Budget),
		attribute.String("skillet.capability", req.Capability),
		attribute.Int("skillet.store_size", snapshot.Len()),
	)

	trace, ranked := e.scoreAll(snapshot, req.Task)

	resolver := conflict.NewResolver(e.config.MutualExclusionOverlap, e.config.PriorityPreempt)
	resolved := resolver.Resolve(ranked, req.Capability)

	packer := budget.NewPacker(e.sizer, e.config.MinFragmentSize)
	sel := packer.Pack(resolved, req.Budget)

	log.WithFields(map[string]interface{}{
		"candidates": len(ranked),
		"selected":   len(sel.Entries),
		"total_size": sel.TotalSize,
	}).Debug("selection session complete")

	telemetry.SetAttributes(ctx,
		attribute.Int("skillet.selected", len(sel.Entries)),
		attribute.Int("skillet.total_size", sel.TotalSize),
	)

	return &Result{
		ID:        sessionID,
		Task:      req.Task,
		Selection: sel,
		Trace:     trace,
	}, nil
}

// scoreAll scores every record in the snapshot. It returns the full trace in
// rank order plus the subset that clears the relevance threshold. Candidates
// at or above the preempt priority bypass the threshold: "always include
// when applicable" would be meaningless if a zero-score authoritative skill
// never reached the resolver.
func (e *Engine) scoreAll(snapshot *skills.Snapshot, task string) (trace, ranked []*selection.Candidate) {
	for _, rec := range snapshot.All() {
		c := &selection.Candidate{
			Record:   rec,
			Name:     rec.Name,
			Score:    e.scorer.Score(task, rec.Description, rec.Tags),
			Included: false,
			Reason:   selection.ReasonRelevant,
		}
		trace = append(trace, c)

		if c.Score < e.config.MinScore && rec.Priority < e.config.PriorityPreempt {
			c.Reason = selection.ReasonBelowMinScore
			continue
		}
		ranked = append(ranked, c)
	}

	selection.SortByRank(ranked)
	selection.SortByRank(trace)
	return trace, ranked
}
