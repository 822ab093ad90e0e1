package engine

// Config is the tuning surface consumed at engine construction time. The
// thresholds are deliberately tunable; the defaults are reasonable, not
// canonical.
type Config struct {
	// MinScore excludes candidates scoring below it before ranking.
	MinScore float64 `mapstructure:"min_score" json:"minScore"`
	// MutualExclusionOverlap is the tag overlap coefficient at or above
	// which two candidates are considered mutually exclusive.
	MutualExclusionOverlap float64 `mapstructure:"mutual_exclusion_overlap" json:"mutualExclusionOverlap"`
	// PriorityPreempt is the priority tier that forces a compatible skill to
	// the front of the selection regardless of score.
	PriorityPreempt int `mapstructure:"priority_preempt" json:"priorityPreempt"`
	// MinFragmentSize is the smallest truncated fragment worth including.
	MinFragmentSize int `mapstructure:"min_fragment_size" json:"minFragmentSize"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MinScore:               0.05,
		MutualExclusionOverlap: 0.6,
		PriorityPreempt:        100,
		MinFragmentSize:        200,
	}
}
