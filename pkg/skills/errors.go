package skills

import "fmt"

// DuplicateIDError reports two input records sharing a name within a single
// Load call. The load is rejected as a whole and the prior snapshot stays
// intact.
type DuplicateIDError struct {
	Name string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate skill id %q", e.Name)
}

// MalformedRecordError reports a record that fails validation (empty name,
// description, or body).
type MalformedRecordError struct {
	Name   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("malformed skill record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed skill record %q: %s", e.Name, e.Reason)
}
