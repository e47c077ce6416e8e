package graph

import (
	"context"
)

// QueryResult is what executeGeneratedQuery returns: the triplets the shape
// touched, flattened to a common representation regardless of which shape
// produced them.
type QueryResult struct {
	Triplets []Triplet `json:"triplets"`
}

// executeGeneratedQuery interprets query/params as one of the shapes
// GenerateQueries produces (tagged via the shapeParam params key) and
// evaluates it against the in-memory dictionary, checking ctx between
// traversal steps so a caller-imposed timeout takes effect promptly.
func (s *MemoryStore) executeGeneratedQuery(ctx context.Context, _ string, params map[string]interface{}) (interface{}, error) {
	shape, _ := params[shapeParam].(string)

	switch QueryShape(shape) {
	case ShapeSingleEntityLookup:
		name, _ := params["name"].(string)
		return s.lookupEntity(ctx, name)
	case ShapeRelationshipScan:
		name, _ := params["name"].(string)
		return s.scanRelationships(ctx, name)
	case ShapePathBetweenEntities:
		a, _ := params["a"].(string)
		b, _ := params["b"].(string)
		maxHops := intParam(params, "max_hops", 3)
		return s.pathBetween(ctx, a, b, maxHops)
	case ShapeDeepMultiHop:
		names := stringSliceParam(params, "names")
		maxHops := intParam(params, "max_hops", 3)
		return s.deepMultiHop(ctx, names, maxHops)
	default:
		return QueryResult{}, nil
	}
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	if v, ok := params[key].(int); ok {
		return v
	}
	return fallback
}

func stringSliceParam(params map[string]interface{}, key string) []string {
	v, ok := params[key].([]string)
	if !ok {
		return nil
	}
	return v
}

func (s *MemoryStore) lookupEntity(_ context.Context, name string) (QueryResult, error) {
	rels, ok := s.data.GraphDict[name]
	if !ok {
		return QueryResult{}, nil
	}
	triplets := make([]Triplet, 0, len(rels))
	for _, r := range rels {
		if len(r) < 2 {
			continue
		}
		triplets = append(triplets, Triplet{Subject: name, Relation: r[0], Object: r[1]})
	}
	return QueryResult{Triplets: triplets}, nil
}

func (s *MemoryStore) scanRelationships(ctx context.Context, name string) (QueryResult, error) {
	return s.lookupEntity(ctx, name)
}

// pathBetween does a breadth-first search bounded by maxHops, returning the
// triplets of the shortest path found (if any).
func (s *MemoryStore) pathBetween(ctx context.Context, a, b string, maxHops int) (QueryResult, error) {
	if a == b {
		return QueryResult{}, nil
	}

	type frame struct {
		subject string
		path    []Triplet
	}

	visited := map[string]bool{a: true}
	queue := []frame{{subject: a}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return QueryResult{}, err
		}

		cur := queue[0]
		queue = queue[1:]

		if len(cur.path) >= maxHops {
			continue
		}

		for _, rel := range s.data.GraphDict[cur.subject] {
			if len(rel) < 2 {
				continue
			}
			next := rel[1]
			nextPath := append(append([]Triplet{}, cur.path...), Triplet{
				Subject: cur.subject, Relation: rel[0], Object: next,
			})
			if next == b {
				return QueryResult{Triplets: nextPath}, nil
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, frame{subject: next, path: nextPath})
			}
		}
	}

	return QueryResult{}, nil
}

// deepMultiHop scans relationships from every named subject up to maxHops,
// checking ctx between subjects so a caller-imposed timeout is respected.
func (s *MemoryStore) deepMultiHop(ctx context.Context, names []string, maxHops int) (QueryResult, error) {
	var out []Triplet
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return QueryResult{Triplets: out}, err
		}
		out = append(out, s.collectDepth(name, maxHops, map[string]bool{name: true})...)
	}
	return QueryResult{Triplets: out}, nil
}

func (s *MemoryStore) collectDepth(subject string, depth int, visited map[string]bool) []Triplet {
	if depth == 0 {
		return nil
	}
	var out []Triplet
	for _, rel := range s.data.GraphDict[subject] {
		if len(rel) < 2 {
			continue
		}
		out = append(out, Triplet{Subject: subject, Relation: rel[0], Object: rel[1]})
		if !visited[rel[1]] {
			visited[rel[1]] = true
			out = append(out, s.collectDepth(rel[1], depth-1, visited)...)
		}
	}
	return out
}
