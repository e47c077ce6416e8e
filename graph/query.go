package graph

import (
	"fmt"

	"github.com/arete-go/retrieval/schema"
)

// QueryShape names one of the four query shapes GenerateQueries produces.
type QueryShape string

const (
	ShapeSingleEntityLookup  QueryShape = "single_entity_lookup"
	ShapeRelationshipScan    QueryShape = "relationship_scan"
	ShapePathBetweenEntities QueryShape = "path_between_entities"
	ShapeDeepMultiHop        QueryShape = "deep_multi_hop"
)

// shapeParam is the Params key executeGeneratedQuery reads to decide how to
// interpret the cypher text, since GraphStore.Query only receives the raw
// string and its params.
const shapeParam = "__shape__"

// GeneratedQuery is a graph-store query plus its estimated complexity.
type GeneratedQuery struct {
	Cypher     string
	Params     map[string]interface{}
	Shape      QueryShape
	Complexity int
}

// complexity computes 1 + match_count + 2*relationship_count +
// 5*variable_length_path_count, capped at 10.
func complexity(matchCount, relationshipCount, variableLengthPathCount int) int {
	c := 1 + matchCount + 2*relationshipCount + 5*variableLengthPathCount
	if c > 10 {
		c = 10
	}
	return c
}

// singleEntityLookup is the cheapest shape: match one entity by canonical
// name. It is also the downgrade target for any over-complex query.
func singleEntityLookup(entity schema.Entity) GeneratedQuery {
	return GeneratedQuery{
		Cypher: `MATCH (e:Entity {canonical_form: $name}) RETURN e`,
		Params: map[string]interface{}{
			"name":     entity.CanonicalForm,
			shapeParam: string(ShapeSingleEntityLookup),
		},
		Shape:      ShapeSingleEntityLookup,
		Complexity: complexity(1, 0, 0),
	}
}

// relationshipScan matches one entity plus its RELATES_TO/MENTIONS edges —
// complexity 3 when combined with the match itself.
func relationshipScan(entity schema.Entity) GeneratedQuery {
	return GeneratedQuery{
		Cypher: `MATCH (e:Entity {canonical_form: $name})-[r:RELATES_TO|MENTIONS]-(other:Entity) ` +
			`RETURN e, r, other`,
		Params: map[string]interface{}{
			"name":     entity.CanonicalForm,
			shapeParam: string(ShapeRelationshipScan),
		},
		Shape:      ShapeRelationshipScan,
		Complexity: complexity(1, 1, 0),
	}
}

// pathBetweenEntities matches a bounded-length path between two entities —
// complexity 5 at one hop (1 match + 2*relationship + 5*variable-length).
func pathBetweenEntities(a, b schema.Entity, maxHops int) GeneratedQuery {
	return GeneratedQuery{
		Cypher: fmt.Sprintf(
			`MATCH p = (a:Entity {canonical_form: $a})-[:RELATES_TO|MENTIONS*1..%d]-(b:Entity {canonical_form: $b}) RETURN p`,
			maxHops,
		),
		Params: map[string]interface{}{
			"a":        a.CanonicalForm,
			"b":        b.CanonicalForm,
			"max_hops": maxHops,
			shapeParam: string(ShapePathBetweenEntities),
		},
		Shape:      ShapePathBetweenEntities,
		Complexity: complexity(1, 0, 1),
	}
}

// deepMultiHopTraversal is the enrichment shape for queries naming several
// entities whose relationship is not a simple path: it scans relationships
// from every named entity up to maxHops.
func deepMultiHopTraversal(entities []schema.Entity, maxHops int) GeneratedQuery {
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.CanonicalForm
	}
	return GeneratedQuery{
		Cypher: fmt.Sprintf(
			`MATCH (e:Entity)-[r:RELATES_TO|MENTIONS*1..%d]-(other:Entity) WHERE e.canonical_form IN $names RETURN e, r, other`,
			maxHops,
		),
		Params: map[string]interface{}{
			"names":    names,
			"max_hops": maxHops,
			shapeParam: string(ShapeDeepMultiHop),
		},
		Shape:      ShapeDeepMultiHop,
		Complexity: complexity(len(entities), len(entities), 1),
	}
}

// QueryConfig bounds query generation and complexity.
type QueryConfig struct {
	MaxPathLength int
	MaxComplexity int
}

// DefaultQueryConfig returns the spec's documented defaults.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{MaxPathLength: 3, MaxComplexity: 8}
}

// GenerateQueries maps detected entities to the query shapes the spec
// requires, downgrading any query whose complexity exceeds
// cfg.MaxComplexity to the cheapest shape (single-entity lookup).
func GenerateQueries(entities []schema.Entity, cfg QueryConfig) []GeneratedQuery {
	if len(entities) == 0 {
		return nil
	}

	var queries []GeneratedQuery
	for _, e := range entities {
		queries = append(queries, singleEntityLookup(e))
		queries = append(queries, relationshipScan(e))
	}

	if len(entities) >= 2 {
		queries = append(queries, pathBetweenEntities(entities[0], entities[1], cfg.MaxPathLength))
	}

	if len(entities) > 2 {
		queries = append(queries, deepMultiHopTraversal(entities, cfg.MaxPathLength))
	}

	for i, q := range queries {
		if q.Complexity > cfg.MaxComplexity {
			downgraded := singleEntityLookup(entities[0])
			downgraded.Shape = q.Shape
			queries[i] = downgraded
		}
	}
	return queries
}
