// Package relevance scores how well a skill description matches a task. The
// baseline scorer is a deterministic token-overlap measure; anything richer
// (embeddings, a learned comparator) can be swapped in behind the Scorer
// interface as long as it stays deterministic for identical inputs.
package relevance

// TagBoost is added once when any declared tag intersects the task tokens.
const TagBoost = 0.1

// Scorer computes a similarity score in [0, 1] between a task and a skill
// description. Implementations must be deterministic: identical inputs
// produce identical scores.
type Scorer interface {
	Score(task, description string, tags []string) float64
}

// OverlapScorer is the baseline scorer: a Dice-style token overlap between
// the task and the description, with a small boost when declared tags
// intersect the task tokens.
type OverlapScorer struct{}

// NewOverlapScorer creates the baseline token-overlap scorer.
func NewOverlapScorer() *OverlapScorer {
	return &OverlapScorer{}
}

// Score computes 2*|intersection| / (|task| + |description|) over the
// normalized token sets, plus TagBoost when tags overlap the task tokens.
// The result is capped at 1.0 and is 0 when nothing overlaps.
func (s *OverlapScorer) Score(task, description string, tags []string) float64 {
	taskTokens := Tokenize(task)
	descTokens := Tokenize(description)
	if len(taskTokens) == 0 || len(descTokens) == 0 {
		return 0
	}

	taskSet := TokenSet(taskTokens)

	intersection := 0
	for _, t := range descTokens {
		if _, ok := taskSet[t]; ok {
			intersection++
		}
	}

	score := 2 * float64(intersection) / float64(len(taskTokens)+len(descTokens))

	if tagOverlap(taskSet, tags) {
		score += TagBoost
	}
	if score > 1 {
		score = 1
	}
	return score
}

// tagOverlap reports whether any declared tag, normalized the same way as
// task text, appears in the task token set.
func tagOverlap(taskSet map[string]struct{}, tags []string) bool {
	for _, tag := range tags {
		for _, tok := range Tokenize(tag) {
			if _, ok := taskSet[tok]; ok {
				return true
			}
		}
	}
	return false
}
