// Package selection defines the transient values produced by a selection
// session: scored candidates, their include/exclude reasons, and the final
// bounded selection handed back to the host. Values here are owned by the
// session that created them and are never shared across sessions.
package selection

import (
	"sort"

	"github.com/contextforge/skillet/pkg/skills"
)

// Reason is a machine-readable code explaining why a candidate was included
// or excluded. Exclusions are routine outcomes, not errors; every dropped
// candidate carries one of these so a resolution trace is always
// reconstructable.
type Reason string

const (
	// ReasonRelevant marks a candidate included on relevance ranking alone.
	ReasonRelevant Reason = "relevant"
	// ReasonPreempted marks a candidate forced in by the preempt priority tier.
	ReasonPreempted Reason = "preempt-priority"
	// ReasonBelowMinScore marks a candidate excluded before ranking.
	ReasonBelowMinScore Reason = "below-min-score"
	// ReasonIncompatible marks a candidate whose compatibility pattern does
	// not match the session's host capability tier.
	ReasonIncompatible Reason = "incompatible"
	// ReasonSuperseded marks a candidate displaced by a higher-ranked
	// candidate with overlapping tags.
	ReasonSuperseded Reason = "superseded"
	// ReasonBudgetExceeded marks a candidate that did not fit the budget,
	// not even as a useful truncated fragment.
	ReasonBudgetExceeded Reason = "budget-exceeded"
)

// Candidate is a skill scored and annotated with an inclusion decision for
// one session.
type Candidate struct {
	Record       *skills.Skill `json:"-"`
	Name         string        `json:"name"`
	Score        float64       `json:"score"`
	Included     bool          `json:"included"`
	Reason       Reason        `json:"reason"`
	SupersededBy string        `json:"supersededBy,omitempty"`
}

// Entry is one included skill in the final injection list.
type Entry struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
	Size      int    `json:"size"`
}

// Selection is the ordered, size-bounded injection list for one task. The
// caller owns it after return; the engine keeps no reference.
type Selection struct {
	Entries   []Entry `json:"entries"`
	TotalSize int     `json:"totalSize"`
	Budget    int     `json:"budget"`
}

// SortByRank orders candidates by the total selection order: score
// descending, then priority descending, then name ascending. The order is
// total, so identical inputs always rank identically.
func SortByRank(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Record.Priority != b.Record.Priority {
			return a.Record.Priority > b.Record.Priority
		}
		return a.Name < b.Name
	})
}
