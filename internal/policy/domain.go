// Package policy parses and evaluates the per-category permission DSL
// stored on user records, e.g. "READ(*)|WRITE(equipment[2])|CREATE(true)".
package policy

import (
	"fmt"
	"sort"
)

// Action enumerates the operations the DSL can grant. The set is closed;
// unknown action keywords fail parsing.
type Action string

const (
	ActionRead   Action = "READ"
	ActionWrite  Action = "WRITE"
	ActionCreate Action = "CREATE"
)

// Category names a resource type governed by its own permission field.
// Categories are keyed by name so new ones are new fields, not new code.
type Category string

const (
	CategoryEquipment Category = "equipment"
	CategoryUser      Category = "user"
	CategoryTodo      Category = "todo"
)

// DefaultCategories lists the categories present in the current schema.
func DefaultCategories() []Category {
	return []Category{CategoryEquipment, CategoryUser, CategoryTodo}
}

// ScopeKind discriminates the scope variants.
type ScopeKind int

const (
	// ScopeWildcard matches every resource id in the category.
	ScopeWildcard ScopeKind = iota
	// ScopeFlag is a boolean capability, only meaningful for CREATE.
	ScopeFlag
	// ScopeResourceID matches exactly one numeric resource id.
	ScopeResourceID
)

// Scope is the canonical scope value attached to a clause. The legacy
// bracketed form "category[id]" is normalized to ScopeResourceID during
// parsing, so a Set never carries it.
type Scope struct {
	Kind  ScopeKind
	ID    int64
	Allow bool
}

// Wildcard returns the scope matching any resource id.
func Wildcard() Scope { return Scope{Kind: ScopeWildcard} }

// Flag returns a boolean capability scope.
func Flag(allow bool) Scope { return Scope{Kind: ScopeFlag, Allow: allow} }

// ResourceID returns a scope matching a single resource id.
func ResourceID(id int64) Scope { return Scope{Kind: ScopeResourceID, ID: id} }

func (s Scope) String() string {
	switch s.Kind {
	case ScopeWildcard:
		return "*"
	case ScopeFlag:
		return fmt.Sprintf("%t", s.Allow)
	default:
		return fmt.Sprintf("%d", s.ID)
	}
}

type scopeSet map[Scope]struct{}

// Set is the immutable structured form of all parsed clauses across all
// categories of one subject. It is safe for unlimited concurrent reads;
// permission changes rebuild a whole new Set, never mutate one in place.
type Set struct {
	grants map[Category]map[Action]scopeSet
}

// Build folds the raw per-category field strings into a Set. Construction
// is atomic: if any field fails to parse the whole build fails and no
// partially-authorized Set is produced. An empty field string yields an
// empty grant for that category, which is valid.
func Build(fields map[Category]string) (*Set, error) {
	grants := make(map[Category]map[Action]scopeSet, len(fields))
	for category, raw := range fields {
		parsed, err := parseField(category, raw)
		if err != nil {
			return nil, err
		}
		grants[category] = parsed
	}
	return &Set{grants: grants}, nil
}

// Categories returns the categories the Set was built with, sorted.
func (s *Set) Categories() []Category {
	out := make([]Category, 0, len(s.grants))
	for category := range s.grants {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ScopesFor returns the scopes granted for (category, action), sorted for
// deterministic output. The slice is empty when nothing is granted.
func (s *Set) ScopesFor(category Category, action Action) []Scope {
	scopes := s.grants[category][action]
	out := make([]Scope, 0, len(scopes))
	for scope := range scopes {
		out = append(out, scope)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return !out[i].Allow && out[j].Allow
	})
	return out
}

func (s *Set) known(category Category) bool {
	_, ok := s.grants[category]
	return ok
}
