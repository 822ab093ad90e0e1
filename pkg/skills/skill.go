// Package skills defines the skill record model and the process-wide skill
// store. A skill is a named unit of instructional content discovered from a
// SKILL.md document: YAML frontmatter describing when it applies, followed by
// the instructions to inject when it is selected.
package skills

// Skill represents a loaded skill record. Records are immutable once loaded;
// the store replaces the whole collection atomically instead of mutating
// records in place.
type Skill struct {
	Name          string   // Unique slug from frontmatter
	Description   string   // Free-text summary used for relevance matching
	Content       string   // Instructional body to inject when selected
	Compatibility string   // Optional glob over host capability tiers ("claude-*")
	Priority      int      // Higher wins ties; values >= the preempt threshold force inclusion
	Tags          []string // Keywords; derived from the description when absent
	Requires      []string // Companion skills exempt from mutual exclusion
	Directory     string   // Source directory, informational only
}

// Metadata represents the YAML frontmatter in SKILL.md files.
type Metadata struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Compatibility string   `yaml:"compatibility"`
	Priority      int      `yaml:"priority"`
	Tags          []string `yaml:"tags"`
	Requires      []string `yaml:"requires"`
}
