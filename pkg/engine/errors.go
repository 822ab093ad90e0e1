package engine

import "fmt"

// EmptyStoreError reports a selection attempted against a snapshot with zero
// records.
type EmptyStoreError struct{}

func (e *EmptyStoreError) Error() string {
	return "skill store is empty"
}

// InvalidBudgetError reports a non-positive budget.
type InvalidBudgetError struct {
	Budget int
}

func (e *InvalidBudgetError) Error() string {
	return fmt.Sprintf("invalid budget %d: must be positive", e.Budget)
}
