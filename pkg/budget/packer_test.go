package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextforge/skillet/pkg/skills"
	"github.com/contextforge/skillet/pkg/types/selection"
)

func candidate(name, content string) *selection.Candidate {
	return &selection.Candidate{
		Record: &skills.Skill{Name: name, Content: content},
		Name:   name,
		Reason: selection.ReasonRelevant,
	}
}

func TestPackWholeInclusion(t *testing.T) {
	packer := NewPacker(RuneSizer{}, 200)

	a := candidate("a", strings.Repeat("x", 100))
	b := candidate("b", strings.Repeat("y", 100))

	sel := packer.Pack([]*selection.Candidate{a, b}, 500)

	require.Len(t, sel.Entries, 2)
	assert.Equal(t, "a", sel.Entries[0].Name)
	assert.Equal(t, "b", sel.Entries[1].Name)
	assert.Equal(t, 200, sel.TotalSize)
	assert.False(t, sel.Entries[0].Truncated)
	assert.True(t, a.Included)
	assert.True(t, b.Included)
}

func TestPackTruncatedInclusion(t *testing.T) {
	packer := NewPacker(RuneSizer{}, 200)

	big := candidate("big", strings.Repeat("x", 1000))

	sel := packer.Pack([]*selection.Candidate{big}, 600)

	require.Len(t, sel.Entries, 1)
	assert.True(t, sel.Entries[0].Truncated)
	assert.Equal(t, 600, sel.Entries[0].Size)
	assert.Len(t, sel.Entries[0].Content, 600)
	assert.Equal(t, 600, sel.TotalSize)
}

func TestPackSkipsBelowMinFragment(t *testing.T) {
	packer := NewPacker(RuneSizer{}, 200)

	big := candidate("big", strings.Repeat("x", 200))

	sel := packer.Pack([]*selection.Candidate{big}, 50)

	assert.Empty(t, sel.Entries)
	assert.False(t, big.Included)
	assert.Equal(t, selection.ReasonBudgetExceeded, big.Reason)
}

func TestPackContinuesPastOversizedCandidate(t *testing.T) {
	packer := NewPacker(RuneSizer{}, 200)

	// huge doesn't fit and the remainder is below the useful fragment size,
	// but the smaller lower-ranked skill still fits
	huge := candidate("huge", strings.Repeat("x", 5000))
	small := candidate("small", strings.Repeat("y", 80))

	sel := packer.Pack([]*selection.Candidate{huge, small}, 100)

	require.Len(t, sel.Entries, 1)
	assert.Equal(t, "small", sel.Entries[0].Name)
	assert.Equal(t, selection.ReasonBudgetExceeded, huge.Reason)
}

func TestPackNeverExceedsBudget(t *testing.T) {
	packer := NewPacker(RuneSizer{}, 10)

	candidates := []*selection.Candidate{
		candidate("a", strings.Repeat("x", 70)),
		candidate("b", strings.Repeat("y", 70)),
		candidate("c", strings.Repeat("z", 70)),
	}

	for _, budget := range []int{1, 50, 100, 140, 150, 210, 1000} {
		sel := packer.Pack(candidates, budget)
		assert.LessOrEqual(t, sel.TotalSize, budget, "budget %d", budget)

		total := 0
		for _, entry := range sel.Entries {
			assert.NotEmpty(t, entry.Content)
			total += entry.Size
		}
		assert.Equal(t, sel.TotalSize, total)
	}
}

func TestPackStopsAtExactFill(t *testing.T) {
	packer := NewPacker(RuneSizer{}, 10)

	a := candidate("a", strings.Repeat("x", 100))
	b := candidate("b", strings.Repeat("y", 100))

	sel := packer.Pack([]*selection.Candidate{a, b}, 100)

	require.Len(t, sel.Entries, 1)
	assert.Equal(t, 100, sel.TotalSize)
	assert.Equal(t, selection.ReasonBudgetExceeded, b.Reason)
}

func TestPackEmptyCandidates(t *testing.T) {
	packer := NewPacker(RuneSizer{}, 200)
	sel := packer.Pack(nil, 100)
	assert.Empty(t, sel.Entries)
	assert.Zero(t, sel.TotalSize)
}

func TestRuneSizer(t *testing.T) {
	sizer := RuneSizer{}

	t.Run("size counts runes not bytes", func(t *testing.T) {
		assert.Equal(t, 5, sizer.Size("héllo"))
		assert.Equal(t, 6, len("héllo"))
	})

	t.Run("truncate keeps whole runes", func(t *testing.T) {
		assert.Equal(t, "hé", sizer.Truncate("héllo", 2))
		assert.Equal(t, "héllo", sizer.Truncate("héllo", 10))
		assert.Equal(t, "", sizer.Truncate("héllo", 0))
	})
}
