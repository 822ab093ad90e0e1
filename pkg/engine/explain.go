package engine

import (
	"fmt"
	"strings"
)

// Explain renders the session trace as human-readable text: one line per
// candidate with its score and outcome, then the packed selection. The
// output is deterministic and intended for debugging and golden tests.
func (r *Result) Explain() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "task: %s\n", r.Task)
	fmt.Fprintf(&sb, "budget: %d\n\n", r.Selection.Budget)

	sb.WriteString("candidates:\n")
	for _, c := range r.Trace {
		verdict := "excluded"
		if c.Included {
			verdict = "included"
		}
		fmt.Fprintf(&sb, "  %-24s score=%.3f %s (%s", c.Name, c.Score, verdict, c.Reason)
		if c.SupersededBy != "" {
			fmt.Fprintf(&sb, " by %s", c.SupersededBy)
		}
		sb.WriteString(")\n")
	}

	sb.WriteString("\nselection:\n")
	if len(r.Selection.Entries) == 0 {
		sb.WriteString("  (empty: no skill applies)\n")
	}
	for i, entry := range r.Selection.Entries {
		suffix := ""
		if entry.Truncated {
			suffix = " truncated"
		}
		fmt.Fprintf(&sb, "  %d. %s size=%d%s\n", i+1, entry.Name, entry.Size, suffix)
	}
	fmt.Fprintf(&sb, "\ntotal: %d of %d\n", r.Selection.TotalSize, r.Selection.Budget)

	return sb.String()
}
