package engine

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextforge/skillet/pkg/skills"
	"github.com/contextforge/skillet/pkg/types/selection"
)

func loadedStore(t *testing.T, records ...*skills.Skill) *skills.Store {
	t.Helper()
	store := skills.NewStore()
	require.NoError(t, store.Load(records))
	return store
}

func entryNames(sel selection.Selection) []string {
	out := make([]string, 0, len(sel.Entries))
	for _, e := range sel.Entries {
		out = append(out, e.Name)
	}
	return out
}

func TestSelectEmptyStore(t *testing.T) {
	eng := New(skills.NewStore())

	_, err := eng.Select(context.Background(), Request{Task: "anything", Budget: 100})
	require.Error(t, err)

	var emptyStore *EmptyStoreError
	assert.ErrorAs(t, err, &emptyStore)
}

func TestSelectInvalidBudget(t *testing.T) {
	eng := New(loadedStore(t, &skills.Skill{Name: "a", Description: "desc words", Content: "body"}))

	for _, budget := range []int{0, -1, -100} {
		_, err := eng.Select(context.Background(), Request{Task: "anything", Budget: budget})
		require.Error(t, err)

		var invalid *InvalidBudgetError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, budget, invalid.Budget)
	}
}

func TestSelectRanksByOverlap(t *testing.T) {
	// the canonical ranking scenario: the testing skill shares more tokens
	// with the task than the formatting skill, so it ranks first
	store := loadedStore(t,
		&skills.Skill{Name: "prettier-format", Description: "format code with prettier", Content: strings.Repeat("p", 500)},
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: strings.Repeat("v", 500)},
	)
	eng := New(store)

	result, err := eng.Select(context.Background(), Request{
		Task:   "write a unit test for formatDate",
		Budget: 10000,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"vitest-testing", "prettier-format"}, entryNames(result.Selection))
	assert.False(t, result.Selection.Entries[0].Truncated)
	assert.False(t, result.Selection.Entries[1].Truncated)
}

func TestSelectEmptySelectionIsValid(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "helm-deploy", Description: "deploy services with helm", Content: "body content"},
	)
	eng := New(store)

	result, err := eng.Select(context.Background(), Request{
		Task:   "write a poem about spring",
		Budget: 10000,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Selection.Entries)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, selection.ReasonBelowMinScore, result.Trace[0].Reason)
	assert.Zero(t, result.Trace[0].Score)
}

func TestSelectDeterministic(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "jest-testing", Description: "run unit tests with jest", Content: "jest body content here"},
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "vitest body content here"},
		&skills.Skill{Name: "prettier-format", Description: "format code with prettier", Content: "prettier body content"},
	)
	eng := New(store)

	req := Request{Task: "write a unit test for formatDate", Budget: 10000}

	first, err := eng.Select(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := eng.Select(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first.Selection, again.Selection)
		assert.Equal(t, first.Explain(), again.Explain())
		assert.NotEqual(t, first.ID, again.ID)
	}
}

func TestSelectTieBreaks(t *testing.T) {
	t.Run("priority breaks score ties", func(t *testing.T) {
		store := loadedStore(t,
			&skills.Skill{Name: "b-skill", Description: "run unit tests quickly", Content: "b", Priority: 5,
				Tags: []string{"bbb"}},
			&skills.Skill{Name: "a-skill", Description: "run unit tests quickly", Content: "a",
				Tags: []string{"aaa"}},
		)
		eng := New(store)

		result, err := eng.Select(context.Background(), Request{Task: "run unit tests", Budget: 100})
		require.NoError(t, err)
		assert.Equal(t, "b-skill", result.Trace[0].Name)
	})

	t.Run("name breaks full ties", func(t *testing.T) {
		store := loadedStore(t,
			&skills.Skill{Name: "zeta", Description: "run unit tests quickly", Content: "z", Tags: []string{"zzz"}},
			&skills.Skill{Name: "alpha", Description: "run unit tests quickly", Content: "a", Tags: []string{"aaa"}},
		)
		eng := New(store)

		result, err := eng.Select(context.Background(), Request{Task: "run unit tests", Budget: 100})
		require.NoError(t, err)
		assert.Equal(t, "alpha", result.Trace[0].Name)
	})
}

func TestSelectMutualExclusion(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "jest-testing", Description: "run unit tests with jest", Content: "jest instructions"},
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "vitest instructions"},
	)
	eng := New(store)

	result, err := eng.Select(context.Background(), Request{Task: "write a unit test", Budget: 10000})
	require.NoError(t, err)

	// derived tags overlap at 0.75, above the 0.6 default; only the
	// higher-ranked (name tie-break: jest before vitest) survives
	assert.Equal(t, []string{"jest-testing"}, entryNames(result.Selection))

	var vitest *selection.Candidate
	for _, c := range result.Trace {
		if c.Name == "vitest-testing" {
			vitest = c
		}
	}
	require.NotNil(t, vitest)
	assert.Equal(t, selection.ReasonSuperseded, vitest.Reason)
	assert.Equal(t, "jest-testing", vitest.SupersededBy)
}

func TestSelectPreemptPriority(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "vitest instructions"},
		&skills.Skill{Name: "security-policy", Description: "security policy for sensitive changes", Content: "policy text", Priority: 100},
	)
	eng := New(store)

	result, err := eng.Select(context.Background(), Request{Task: "write a unit test", Budget: 10000})
	require.NoError(t, err)

	// zero relevance, but preempt priority forces it in, first
	require.NotEmpty(t, result.Selection.Entries)
	assert.Equal(t, "security-policy", result.Selection.Entries[0].Name)
}

func TestSelectIncompatibleSkillsSkipped(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "gpt-tuning", Description: "run unit tests with the tuner", Content: "body", Compatibility: "gpt-*"},
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "body", Tags: []string{"vitest"}},
	)
	eng := New(store)

	result, err := eng.Select(context.Background(), Request{
		Task:       "write a unit test",
		Budget:     10000,
		Capability: "claude-4",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"vitest-testing"}, entryNames(result.Selection))

	var tuner *selection.Candidate
	for _, c := range result.Trace {
		if c.Name == "gpt-tuning" {
			tuner = c
		}
	}
	require.NotNil(t, tuner)
	assert.Equal(t, selection.ReasonIncompatible, tuner.Reason)
}

func TestSelectBudgetNeverExceeded(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "one", Description: "run unit tests with vitest", Content: strings.Repeat("x", 700), Tags: []string{"one"}},
		&skills.Skill{Name: "two", Description: "write unit tests for modules", Content: strings.Repeat("y", 700), Tags: []string{"two"}},
	)
	eng := New(store)

	for _, budget := range []int{1, 100, 250, 699, 700, 701, 1400, 5000} {
		result, err := eng.Select(context.Background(), Request{Task: "write a unit test", Budget: budget})
		require.NoError(t, err)
		assert.LessOrEqual(t, result.Selection.TotalSize, budget, "budget %d", budget)
	}
}

func TestSelectSmallBudgetRecordsBudgetExceeded(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: strings.Repeat("x", 200)},
	)
	eng := New(store)

	result, err := eng.Select(context.Background(), Request{Task: "write a unit test", Budget: 50})
	require.NoError(t, err)

	// 50 remaining is below the default minimum fragment size of 200, so
	// the skill is skipped whole and the selection is empty
	assert.Empty(t, result.Selection.Entries)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, selection.ReasonBudgetExceeded, result.Trace[0].Reason)
	assert.False(t, result.Trace[0].Included)
}

func TestSelectTruncatedInclusion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinFragmentSize = 100

	store := loadedStore(t,
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: strings.Repeat("x", 1000)},
	)
	eng := New(store, WithConfig(cfg))

	result, err := eng.Select(context.Background(), Request{Task: "write a unit test", Budget: 300})
	require.NoError(t, err)

	require.Len(t, result.Selection.Entries, 1)
	entry := result.Selection.Entries[0]
	assert.True(t, entry.Truncated)
	assert.Equal(t, 300, entry.Size)
	assert.Equal(t, 300, result.Selection.TotalSize)
}

func TestSelectSnapshotIsolationAcrossReload(t *testing.T) {
	store := skills.NewStore()
	require.NoError(t, store.Load([]*skills.Skill{
		{Name: "old-skill", Description: "run unit tests with vitest", Content: "old body"},
	}))
	eng := New(store)

	// capture the snapshot the way a session does, then reload underneath it
	captured := store.Snapshot()
	require.NoError(t, store.Load([]*skills.Skill{
		{Name: "new-skill", Description: "run unit tests with vitest", Content: "new body"},
	}))

	_, ok := captured.Get("old-skill")
	assert.True(t, ok, "in-flight session keeps its snapshot")

	result, err := eng.Select(context.Background(), Request{Task: "write a unit test", Budget: 1000})
	require.NoError(t, err)
	assert.Equal(t, []string{"new-skill"}, entryNames(result.Selection))
}

func TestSelectConcurrentSessions(t *testing.T) {
	store := loadedStore(t,
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "vitest body"},
		&skills.Skill{Name: "prettier-format", Description: "format code with prettier", Content: "prettier body"},
	)
	eng := New(store)

	req := Request{Task: "write a unit test for formatDate", Budget: 10000}

	baseline, err := eng.Select(context.Background(), req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := eng.Select(context.Background(), req)
			assert.NoError(t, err)
			assert.Equal(t, baseline.Selection, result.Selection)
		}()
	}
	wg.Wait()
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.05, cfg.MinScore)
	assert.Equal(t, 0.6, cfg.MutualExclusionOverlap)
	assert.Equal(t, 100, cfg.PriorityPreempt)
	assert.Equal(t, 200, cfg.MinFragmentSize)
}
