package graph

import (
	"regexp"
	"strings"

	"github.com/arete-go/retrieval/schema"
)

// entityPatterns pairs a regex with the entity kind and base confidence it
// signals. Regex-based rather than NER since this tagger only needs to
// recognize a closed, curated vocabulary of philosophical names/works/
// concepts/places, not open-domain entities.
type entityPattern struct {
	pattern    *regexp.Regexp
	kind       schema.EntityKind
	confidence float64
}

var entityPatterns = []entityPattern{
	{
		pattern:    regexp.MustCompile(`(?i)\b(plato|aristotle|socrates|epicurus|seneca|confucius|kant|hume|descartes|spinoza|nietzsche|augustine|aquinas)\b`),
		kind:       schema.EntityKindPerson,
		confidence: 0.8,
	},
	{
		pattern:    regexp.MustCompile(`(?i)\b(virtue|justice|wisdom|eudaimonia|phronesis|dharma|arete|soul|form|substance|dialectic|ethics|metaphysics)\b`),
		kind:       schema.EntityKindConcept,
		confidence: 0.7,
	},
	{
		pattern:    regexp.MustCompile(`(?i)\b(republic|nicomachean ethics|meditations|critique of pure reason|metaphysics|phaedo|symposium|politics|confessions)\b`),
		kind:       schema.EntityKindWork,
		confidence: 0.9,
	},
	{
		pattern:    regexp.MustCompile(`(?i)\b(athens|sparta|rome|alexandria|jerusalem|greece)\b`),
		kind:       schema.EntityKindPlace,
		confidence: 0.8,
	},
}

// DetectEntities tags a query with the entities it names, resolving
// overlapping detections (the same span matched by more than one pattern)
// by keeping the highest-confidence kind.
func DetectEntities(query string) []schema.Entity {
	best := make(map[string]schema.Entity)
	for _, ep := range entityPatterns {
		matches := ep.pattern.FindAllString(query, -1)
		for _, m := range matches {
			canonical := strings.ToLower(m)
			if existing, ok := best[canonical]; ok && existing.Confidence >= ep.confidence {
				continue
			}
			best[canonical] = schema.Entity{
				Name:          m,
				CanonicalForm: canonical,
				Kind:          ep.kind,
				Confidence:    ep.confidence,
			}
		}
	}

	entities := make([]schema.Entity, 0, len(best))
	for _, e := range best {
		entities = append(entities, e)
	}
	return entities
}
