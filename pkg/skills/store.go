package skills

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/contextforge/skillet/pkg/relevance"
)

// maxDerivedTags caps how many description tokens become tags when the
// frontmatter declares none.
const maxDerivedTags = 8

// Store holds the current skill collection as an immutable snapshot. Load
// swaps the snapshot atomically; readers capture a snapshot once and keep
// reading it to completion, so an in-flight selection never observes a torn
// reload.
type Store struct {
	mu       sync.Mutex // serializes Load; at most one reload proceeds at a time
	snapshot atomic.Pointer[Snapshot]
}

// Snapshot is an immutable point-in-time view of the store.
type Snapshot struct {
	byName  map[string]*Skill
	ordered []*Skill // sorted by name for deterministic iteration
}

// NewStore creates a store with an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.snapshot.Store(&Snapshot{byName: map[string]*Skill{}})
	return s
}

// Load validates the records and atomically replaces the current snapshot.
// Validation failures (duplicate names, empty description or body) reject
// the whole batch: the error aggregates every offending record and the prior
// snapshot remains queryable.
func (s *Store) Load(records []*Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := make(map[string]*Skill, len(records))
	ordered := make([]*Skill, 0, len(records))

	var errs *multierror.Error
	for _, rec := range records {
		if err := validate(rec); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if _, exists := byName[rec.Name]; exists {
			errs = multierror.Append(errs, &DuplicateIDError{Name: rec.Name})
			continue
		}

		frozen := freeze(rec)
		byName[frozen.Name] = frozen
		ordered = append(ordered, frozen)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })
	s.snapshot.Store(&Snapshot{byName: byName, ordered: ordered})
	return nil
}

// Snapshot returns the current immutable snapshot. Callers hold the returned
// value for the duration of their work; later reloads do not affect it.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// All returns the records sorted by name. Callers must not mutate them.
func (sn *Snapshot) All() []*Skill {
	return sn.ordered
}

// Get returns the record with the given name.
func (sn *Snapshot) Get(name string) (*Skill, bool) {
	rec, ok := sn.byName[name]
	return rec, ok
}

// Len returns the number of records in the snapshot.
func (sn *Snapshot) Len() int {
	return len(sn.ordered)
}

func validate(rec *Skill) error {
	switch {
	case rec.Name == "":
		return &MalformedRecordError{Reason: "name is empty"}
	case rec.Description == "":
		return &MalformedRecordError{Name: rec.Name, Reason: "description is empty"}
	case rec.Content == "":
		return &MalformedRecordError{Name: rec.Name, Reason: "body is empty"}
	}
	return nil
}

// freeze copies the record so later caller mutations cannot leak into the
// snapshot, normalizes tags, and derives tags from the description when none
// are declared.
func freeze(rec *Skill) *Skill {
	out := *rec

	if len(rec.Tags) == 0 {
		tags := relevance.Tokenize(rec.Description)
		if len(tags) > maxDerivedTags {
			tags = tags[:maxDerivedTags]
		}
		out.Tags = tags
	} else {
		var tags []string
		for _, tag := range rec.Tags {
			tags = append(tags, relevance.Tokenize(tag)...)
		}
		out.Tags = dedupe(tags)
	}

	out.Requires = append([]string(nil), rec.Requires...)
	return &out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
