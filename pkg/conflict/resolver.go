// Package conflict decides which of several plausibly-applicable skills
// survive into packing. Rules run in a fixed order: compatibility filtering,
// tag-overlap mutual exclusion, then priority preemption. No candidate is
// dropped silently; every exclusion is recorded on the candidate itself.
package conflict

import (
	"github.com/gobwas/glob"

	"github.com/contextforge/skillet/pkg/skills"
	"github.com/contextforge/skillet/pkg/types/selection"
)

// Resolver applies the conflict rules to a ranked candidate list.
type Resolver struct {
	overlapThreshold float64
	priorityPreempt  int
}

// NewResolver creates a resolver. overlapThreshold is the tag overlap
// coefficient at or above which two candidates are considered mutually
// exclusive; priorityPreempt is the priority tier that forces a candidate to
// the front of the list.
func NewResolver(overlapThreshold float64, priorityPreempt int) *Resolver {
	return &Resolver{
		overlapThreshold: overlapThreshold,
		priorityPreempt:  priorityPreempt,
	}
}

// Resolve filters and reorders the ranked candidates in place, marking
// excluded ones with their reason, and returns the surviving candidates in
// final order. Input order is the rank order from scoring.
func (r *Resolver) Resolve(ranked []*selection.Candidate, hostCapability string) []*selection.Candidate {
	kept := make([]*selection.Candidate, 0, len(ranked))
	for _, c := range ranked {
		if !compatible(c.Record, hostCapability) {
			c.Included = false
			c.Reason = selection.ReasonIncompatible
			continue
		}
		kept = append(kept, c)
	}

	kept = r.applyMutualExclusion(kept)
	return r.applyPreempt(kept)
}

// applyMutualExclusion keeps only the higher-ranked of any two candidates
// whose tag sets overlap at or above the threshold, unless either declares
// the other as a required companion.
func (r *Resolver) applyMutualExclusion(ranked []*selection.Candidate) []*selection.Candidate {
	kept := make([]*selection.Candidate, 0, len(ranked))
	for _, c := range ranked {
		superseded := false
		for _, winner := range kept {
			if requiresEither(winner.Record, c.Record) {
				continue
			}
			if overlapCoefficient(winner.Record.Tags, c.Record.Tags) >= r.overlapThreshold {
				c.Included = false
				c.Reason = selection.ReasonSuperseded
				c.SupersededBy = winner.Name
				superseded = true
				break
			}
		}
		if !superseded {
			kept = append(kept, c)
		}
	}
	return kept
}

// applyPreempt moves candidates at or above the preempt priority to the
// front, keeping relative order within both groups.
func (r *Resolver) applyPreempt(ranked []*selection.Candidate) []*selection.Candidate {
	out := make([]*selection.Candidate, 0, len(ranked))
	for _, c := range ranked {
		if c.Record.Priority >= r.priorityPreempt {
			c.Reason = selection.ReasonPreempted
			out = append(out, c)
		}
	}
	for _, c := range ranked {
		if c.Record.Priority < r.priorityPreempt {
			out = append(out, c)
		}
	}
	return out
}

// compatible reports whether a record may run on the host capability tier.
// An empty compatibility pattern matches every tier; a pattern that fails to
// compile is compared literally.
func compatible(rec *skills.Skill, hostCapability string) bool {
	if rec.Compatibility == "" {
		return true
	}

	matcher, err := glob.Compile(rec.Compatibility)
	if err != nil {
		return rec.Compatibility == hostCapability
	}
	return matcher.Match(hostCapability)
}

// requiresEither reports whether either record declares the other as a
// required companion, which exempts the pair from mutual exclusion.
func requiresEither(a, b *skills.Skill) bool {
	return requires(a, b.Name) || requires(b, a.Name)
}

func requires(rec *skills.Skill, name string) bool {
	for _, req := range rec.Requires {
		if req == name {
			return true
		}
	}
	return false
}

// overlapCoefficient is |A ∩ B| / min(|A|, |B|); 0 when either set is empty.
func overlapCoefficient(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}

	intersection := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			intersection++
		}
	}

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(intersection) / float64(smaller)
}
