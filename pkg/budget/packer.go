package budget

import (
	"github.com/contextforge/skillet/pkg/types/selection"
)

// Packer greedily fills a budget from a resolved, ranked candidate list.
type Packer struct {
	sizer       Sizer
	minFragment int
}

// NewPacker creates a packer. minFragment is the smallest truncated fragment
// worth including; anything shorter is skipped instead.
func NewPacker(sizer Sizer, minFragment int) *Packer {
	return &Packer{sizer: sizer, minFragment: minFragment}
}

// Pack walks the candidates in rank order and accumulates bodies until the
// budget is consumed. A candidate that does not fit whole is included as a
// truncated fragment when the remaining budget is at least minFragment;
// otherwise it is marked budget-exceeded and packing continues, since a
// smaller lower-ranked candidate may still fit. The result never exceeds the
// budget and never contains an empty fragment.
func (p *Packer) Pack(candidates []*selection.Candidate, budget int) selection.Selection {
	sel := selection.Selection{Budget: budget}

	for _, c := range candidates {
		remaining := budget - sel.TotalSize
		if remaining <= 0 {
			c.Included = false
			c.Reason = selection.ReasonBudgetExceeded
			continue
		}

		size := p.sizer.Size(c.Record.Content)
		if size <= remaining {
			c.Included = true
			sel.Entries = append(sel.Entries, selection.Entry{
				Name:    c.Name,
				Content: c.Record.Content,
				Size:    size,
			})
			sel.TotalSize += size
			continue
		}

		if remaining >= p.minFragment {
			fragment := p.sizer.Truncate(c.Record.Content, remaining)
			fragSize := p.sizer.Size(fragment)
			c.Included = true
			sel.Entries = append(sel.Entries, selection.Entry{
				Name:      c.Name,
				Content:   fragment,
				Truncated: true,
				Size:      fragSize,
			})
			sel.TotalSize += fragSize
			continue
		}

		c.Included = false
		c.Reason = selection.ReasonBudgetExceeded
	}

	return sel
}
