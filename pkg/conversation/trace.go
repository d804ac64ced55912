package conversation

import "strings"

// Entity is one recently mentioned subject.
type Entity struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Domain string `json:"domain"`
}

// EntityTrace is an MRU list of recently mentioned entities with
// case-insensitive dedup on name. It survives topic switches, which is
// what makes "that movie" resolvable two topics later.
type EntityTrace struct {
	entities []Entity
	maxSize  int
}

func NewEntityTrace(maxSize int) *EntityTrace {
	if maxSize <= 0 {
		maxSize = 5
	}
	return &EntityTrace{maxSize: maxSize}
}

// Add inserts the entity at the front. A re-mention of an existing name
// (case-insensitively) moves it to the front instead of duplicating it;
// the trace then truncates to maxSize.
func (t *EntityTrace) Add(name, entityType, domain string) {
	lower := strings.ToLower(name)
	kept := t.entities[:0]
	for _, e := range t.entities {
		if strings.ToLower(e.Name) != lower {
			kept = append(kept, e)
		}
	}
	t.entities = append([]Entity{{Name: name, Type: entityType, Domain: domain}}, kept...)
	if len(t.entities) > t.maxSize {
		t.entities = t.entities[:t.maxSize]
	}
}

// Resolve returns the most recent entity, or the most recent entity in
// domainFilter when one is given. The bool is false when nothing
// qualifies.
func (t *EntityTrace) Resolve(domainFilter string) (Entity, bool) {
	for _, e := range t.entities {
		if domainFilter != "" && e.Domain != domainFilter {
			continue
		}
		return e, true
	}
	return Entity{}, false
}

// Entities returns a copy, most recent first.
func (t *EntityTrace) Entities() []Entity {
	out := make([]Entity, len(t.entities))
	copy(out, t.entities)
	return out
}

func (t *EntityTrace) Len() int { return len(t.entities) }
