package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/arete-go/retrieval/schema"
)

// WeaviateStore is a VectorStore backed by a Weaviate class. Each passage is
// stored as an object of ClassName, its embedding as the object vector, and
// its text/document-id/kind as properties so the graphql layer can filter on
// them directly.
type WeaviateStore struct {
	client    *weaviate.Client
	className string
}

// WeaviateOption configures a WeaviateStore.
type WeaviateOption func(*WeaviateStore)

// WithClassName overrides the default "Passage" class name.
func WithClassName(name string) WeaviateOption {
	return func(s *WeaviateStore) { s.className = name }
}

// NewWeaviateStore wraps an already-constructed weaviate client.
func NewWeaviateStore(client *weaviate.Client, opts ...WeaviateOption) *WeaviateStore {
	s := &WeaviateStore{client: client, className: "Passage"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func passageProperties(p schema.Passage) map[string]interface{} {
	return map[string]interface{}{
		"text":        p.Text,
		"document_id": p.DocumentID,
		"position":    p.Position,
		"kind":        string(p.Kind),
	}
}

func passageFromProperties(id string, props map[string]interface{}, vector []float32) schema.Passage {
	p := schema.Passage{ID: id}
	if v, ok := props["text"].(string); ok {
		p.Text = v
	}
	if v, ok := props["document_id"].(string); ok {
		p.DocumentID = v
	}
	if v, ok := props["kind"].(string); ok {
		p.Kind = schema.PassageKind(v)
	}
	if len(vector) > 0 {
		embedding := make([]float64, len(vector))
		for i, f := range vector {
			embedding[i] = float64(f)
		}
		p.Embedding = embedding
	}
	return p
}

func toFloat32Vector(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// Insert implements VectorStore.
func (s *WeaviateStore) Insert(ctx context.Context, passage schema.Passage) error {
	_, err := s.client.Data().Creator().
		WithClassName(s.className).
		WithID(passage.ID).
		WithProperties(passageProperties(passage)).
		WithVector(toFloat32Vector(passage.Embedding)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore: weaviate insert %s: %w", passage.ID, err)
	}
	return nil
}

// BatchInsert implements VectorStore using the batch object creator.
func (s *WeaviateStore) BatchInsert(ctx context.Context, passages []schema.Passage) error {
	objects := make([]*models.Object, 0, len(passages))
	for _, p := range passages {
		objects = append(objects, &models.Object{
			Class:      s.className,
			ID:         toWeaviateID(p.ID),
			Properties: passageProperties(p),
			Vector:     toFloat32Vector(p.Embedding),
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore: weaviate batch insert: %w", err)
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("vectorstore: weaviate batch insert object error: %s", r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Fetch implements VectorStore.
func (s *WeaviateStore) Fetch(ctx context.Context, passageID string) (schema.Passage, bool, error) {
	obj, err := s.client.Data().ObjectsGetter().
		WithClassName(s.className).
		WithID(passageID).
		WithVector().
		Do(ctx)
	if err != nil {
		return schema.Passage{}, false, nil
	}
	if len(obj) == 0 {
		return schema.Passage{}, false, nil
	}
	props, _ := obj[0].Properties.(map[string]interface{})
	return passageFromProperties(passageID, props, obj[0].Vector), true, nil
}

// Delete implements VectorStore.
func (s *WeaviateStore) Delete(ctx context.Context, passageID string) error {
	err := s.client.Data().Deleter().
		WithClassName(s.className).
		WithID(passageID).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore: weaviate delete %s: %w", passageID, err)
	}
	return nil
}

// SearchNearVector implements VectorStore via a GraphQL nearVector query,
// requesting the "_additional { certainty }" field Weaviate reports instead
// of recomputing similarity client-side.
func (s *WeaviateStore) SearchNearVector(ctx context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(toFloat32Vector(query.Embedding)).
		WithCertainty(float32(query.MinCertainty))

	return s.runNearQuery(ctx, query, func(get *graphql.GetBuilder) *graphql.GetBuilder {
		return get.WithNearVector(nearVector)
	})
}

// SearchNearText implements VectorStore via a GraphQL nearText query,
// delegating embedding to whatever vectorizer module the Weaviate class is
// configured with.
func (s *WeaviateStore) SearchNearText(ctx context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error) {
	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query.Text}).
		WithCertainty(float32(query.MinCertainty))

	return s.runNearQuery(ctx, query, func(get *graphql.GetBuilder) *graphql.GetBuilder {
		return get.WithNearText(nearText)
	})
}

func (s *WeaviateStore) runNearQuery(ctx context.Context, query schema.VectorStoreQuery, withNear func(*graphql.GetBuilder) *graphql.GetBuilder) ([]schema.VectorStoreMatch, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "document_id"},
		{Name: "kind"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "certainty"}, {Name: "vector"}}},
	}

	get := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithLimit(limit)
	get = withNear(get)

	if where := filterToWhere(query.Filter); where != nil {
		get = get.WithWhere(where)
	}

	resp, err := get.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: weaviate near query: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("vectorstore: weaviate near query: %s", resp.Errors[0].Message)
	}

	matches, err := decodeGraphQLMatches(resp.Data, s.className)
	if err != nil {
		return nil, err
	}
	kept := matches[:0]
	for _, m := range matches {
		if query.Filter.Matches(m.Passage) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// decodeGraphQLMatches walks the dynamically-typed GraphQL response into
// VectorStoreMatch values; the weaviate client returns map[string]interface{}
// here rather than typed structs.
func decodeGraphQLMatches(data map[string]interface{}, className string) ([]schema.VectorStoreMatch, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var envelope map[string]map[string][]map[string]interface{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("vectorstore: decode weaviate response: %w", err)
	}

	rows := envelope["Get"][className]
	matches := make([]schema.VectorStoreMatch, 0, len(rows))
	for _, row := range rows {
		additional, _ := row["_additional"].(map[string]interface{})
		id, _ := additional["id"].(string)
		certainty, _ := additional["certainty"].(float64)

		var vector []float32
		if rawVec, ok := additional["vector"].([]interface{}); ok {
			vector = make([]float32, len(rawVec))
			for i, v := range rawVec {
				if f, ok := v.(float64); ok {
					vector[i] = float32(f)
				}
			}
		}

		matches = append(matches, schema.VectorStoreMatch{
			PassageID: id,
			Certainty: certainty,
			Passage:   passageFromProperties(id, row, vector),
		})
	}
	return matches, nil
}

// filterToWhere translates a PassageFilter's document-id restriction into a
// GraphQL where filter; kind filtering is applied client-side since it is
// rarely selective enough to push down.
func filterToWhere(filter *schema.PassageFilter) *graphql.WhereArgumentBuilder {
	if filter == nil || len(filter.DocumentIDs) == 0 {
		return nil
	}
	if len(filter.DocumentIDs) == 1 {
		return graphql.NewWhereArgBuilder().
			WithPath([]string{"document_id"}).
			WithOperator(graphql.Equal).
			WithValueString(filter.DocumentIDs[0])
	}
	clauses := make([]*graphql.WhereArgumentBuilder, 0, len(filter.DocumentIDs))
	for _, id := range filter.DocumentIDs {
		clauses = append(clauses, graphql.NewWhereArgBuilder().
			WithPath([]string{"document_id"}).
			WithOperator(graphql.Equal).
			WithValueString(id))
	}
	return graphql.NewWhereArgBuilder().
		WithOperator(graphql.Or).
		WithOperands(clauses)
}

func toWeaviateID(id string) string { return id }

var _ VectorStore = (*WeaviateStore)(nil)
