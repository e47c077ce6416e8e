package graph

import (
	"context"
	"encoding/json"
)

// MemoryStore is an in-memory GraphStore. Triplets are stored in a
// dictionary mapping subjects to [relation, object] pairs, exactly as the
// session-contract methods above describe.
type MemoryStore struct {
	data *GraphStoreData
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithGraphStoreData sets the initial data.
func WithGraphStoreData(data *GraphStoreData) MemoryStoreOption {
	return func(s *MemoryStore) { s.data = data }
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{data: NewGraphStoreData()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements GraphStore.
func (s *MemoryStore) Get(_ context.Context, subj string) ([][]string, error) {
	if rels, ok := s.data.GraphDict[subj]; ok {
		return rels, nil
	}
	return nil, nil
}

// GetRelMap implements GraphStore.
func (s *MemoryStore) GetRelMap(_ context.Context, subjs []string, depth, limit int) (map[string][][]string, error) {
	return s.data.GetRelMap(subjs, depth, limit), nil
}

// UpsertTriplet implements GraphStore.
func (s *MemoryStore) UpsertTriplet(_ context.Context, subj, rel, obj string) error {
	if _, ok := s.data.GraphDict[subj]; !ok {
		s.data.GraphDict[subj] = make([][]string, 0)
	}
	for _, existing := range s.data.GraphDict[subj] {
		if len(existing) >= 2 && existing[0] == rel && existing[1] == obj {
			return nil
		}
	}
	s.data.GraphDict[subj] = append(s.data.GraphDict[subj], []string{rel, obj})
	return nil
}

// Delete implements GraphStore.
func (s *MemoryStore) Delete(_ context.Context, subj, rel, obj string) error {
	rels, ok := s.data.GraphDict[subj]
	if !ok {
		return nil
	}
	newRels := make([][]string, 0, len(rels))
	for _, r := range rels {
		if len(r) >= 2 && r[0] == rel && r[1] == obj {
			continue
		}
		newRels = append(newRels, r)
	}
	if len(newRels) == 0 {
		delete(s.data.GraphDict, subj)
	} else {
		s.data.GraphDict[subj] = newRels
	}
	return nil
}

// GetSchema implements GraphStore; this adapter has no schema to report.
func (s *MemoryStore) GetSchema(_ context.Context, _ bool) (string, error) {
	return "", nil
}

// Query implements GraphStore by interpreting query as one of the shapes
// QueryGenerator produces, executed against the in-memory dictionary. It
// respects ctx cancellation between traversal steps.
func (s *MemoryStore) Query(ctx context.Context, query string, params map[string]interface{}) (interface{}, error) {
	return s.executeGeneratedQuery(ctx, query, params)
}

// Persist is not supported by this adapter; callers needing durability
// should use a real graph database behind the GraphStore interface.
func (s *MemoryStore) Persist(_ context.Context, _ string) error {
	return nil
}

// GetAllSubjects implements GraphStore.
func (s *MemoryStore) GetAllSubjects(_ context.Context) ([]string, error) {
	subjects := make([]string, 0, len(s.data.GraphDict))
	for subj := range s.data.GraphDict {
		subjects = append(subjects, subj)
	}
	return subjects, nil
}

// MarshalJSON implements json.Marshaler.
func (s *MemoryStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.data)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *MemoryStore) UnmarshalJSON(data []byte) error {
	graphData, err := FromJSON(data)
	if err != nil {
		return err
	}
	s.data = graphData
	return nil
}

var _ GraphStore = (*MemoryStore)(nil)
