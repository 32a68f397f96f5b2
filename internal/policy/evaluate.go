package policy

import (
	"fmt"
	"sort"
	"strings"
)

// Reason explains an authorization verdict.
type Reason string

const (
	ReasonNoGrant       Reason = "no_grant"
	ReasonWildcard      Reason = "wildcard"
	ReasonResourceMatch Reason = "resource_match"
	ReasonResourceMiss  Reason = "resource_miss"
	ReasonCreateGranted Reason = "create_granted"
	ReasonCreateDenied  Reason = "create_denied"
	// ReasonCreateResourceScope denies a CREATE that was granted only via
	// resource-id scopes. Such a grant is nonsensical policy data; callers
	// should log it as a warning rather than treat it as a plain deny.
	ReasonCreateResourceScope Reason = "create_resource_scope"
)

// Verdict is the outcome of a single authorization query. Deny is a
// normal result, not an error.
type Verdict struct {
	Allowed bool
	Reason  Reason
}

func allow(reason Reason) Verdict { return Verdict{Allowed: true, Reason: reason} }
func deny(reason Reason) Verdict  { return Verdict{Allowed: false, Reason: reason} }

// Authorize answers "may the subject perform action on the resource with
// this id in this category". The id is ignored for CREATE. Querying a
// category the Set was not built with is a caller bug and returns
// ErrUnknownCategory instead of a verdict.
func (s *Set) Authorize(category Category, action Action, resourceID int64) (Verdict, error) {
	if !s.known(category) {
		return Verdict{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	scopes := s.grants[category][action]
	if len(scopes) == 0 {
		return deny(ReasonNoGrant), nil
	}
	// Wildcard dominates every other scope for the pair.
	if _, ok := scopes[Wildcard()]; ok {
		return allow(ReasonWildcard), nil
	}
	if action == ActionCreate {
		if _, ok := scopes[Flag(true)]; ok {
			return allow(ReasonCreateGranted), nil
		}
		for scope := range scopes {
			if scope.Kind == ScopeResourceID {
				return deny(ReasonCreateResourceScope), nil
			}
		}
		return deny(ReasonCreateDenied), nil
	}
	if _, ok := scopes[ResourceID(resourceID)]; ok {
		return allow(ReasonResourceMatch), nil
	}
	return deny(ReasonResourceMiss), nil
}

// AuthorizeCreate answers the category-global CREATE query.
func (s *Set) AuthorizeCreate(category Category) (Verdict, error) {
	return s.Authorize(category, ActionCreate, 0)
}

// Filter is the resolved scope set for a list query. It restricts a row
// set to the subject's readable (or writable) resources: All means no
// restriction, otherwise only the listed ids are visible. An empty,
// non-All filter matches nothing.
type Filter struct {
	All bool
	IDs []int64
}

// ListFilter resolves the row-level restriction for (category, action)
// list queries, where no single target resource id exists.
func (s *Set) ListFilter(category Category, action Action) (Filter, error) {
	if !s.known(category) {
		return Filter{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	scopes := s.grants[category][action]
	if _, ok := scopes[Wildcard()]; ok {
		return Filter{All: true}, nil
	}
	ids := make([]int64, 0, len(scopes))
	for scope := range scopes {
		if scope.Kind == ScopeResourceID {
			ids = append(ids, scope.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return Filter{IDs: ids}, nil
}

// Match reports whether a single id passes the filter.
func (f Filter) Match(id int64) bool {
	if f.All {
		return true
	}
	for _, candidate := range f.IDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// InClause renders the filter as a SQL condition on the given column.
// It returns "" for an unrestricted filter and "FALSE" for one matching
// nothing. The column name must come from the caller, never from input.
func (f Filter) InClause(column string) string {
	if f.All {
		return ""
	}
	if len(f.IDs) == 0 {
		return "FALSE"
	}
	parts := make([]string, len(f.IDs))
	for i, id := range f.IDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(parts, ","))
}
