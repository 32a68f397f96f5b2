package policy

import (
	"strconv"
	"strings"
)

// Grammar, informally:
//
//	field      := clause ("|" clause)*
//	clause     := action "(" scope_items ")"
//	action     := "READ" | "WRITE" | "CREATE"   (case-insensitive)
//	scope_items := scope_item ("," scope_item)*
//	scope_item := "*" | "true" | "false" | digits | identifier "[" digits "]"
//
// Whitespace around delimiters is tolerated. The bracketed form is the
// legacy syntax; its identifier must name the field's own category and it
// normalizes to a bare resource id.
func parseField(category Category, input string) (map[Action]scopeSet, error) {
	grants := make(map[Action]scopeSet)
	if strings.TrimSpace(input) == "" {
		return grants, nil
	}
	offset := 0
	for _, clause := range strings.Split(input, "|") {
		if err := parseClause(category, input, clause, offset, grants); err != nil {
			return nil, err
		}
		offset += len(clause) + 1
	}
	// Write access implies read access for the same resources. Capability
	// flags are CREATE-only and never mirrored.
	for scope := range grants[ActionWrite] {
		if scope.Kind == ScopeFlag {
			continue
		}
		addScope(grants, ActionRead, scope)
	}
	return grants, nil
}

func parseClause(category Category, input, clause string, offset int, grants map[Action]scopeSet) error {
	trimmed := strings.TrimSpace(clause)
	pos := offset + strings.Index(clause, strings.TrimSpace(clause))
	if trimmed == "" {
		return fieldError(category, input, clause, offset, ErrMalformedField)
	}
	open := strings.IndexByte(trimmed, '(')
	if open < 0 || !strings.HasSuffix(trimmed, ")") {
		return fieldError(category, input, trimmed, pos, ErrMalformedField)
	}
	action, ok := parseAction(trimmed[:open])
	if !ok {
		return fieldError(category, input, trimmed, pos, ErrMalformedField)
	}

	inner := trimmed[open+1 : len(trimmed)-1]
	itemPos := pos + open + 1
	for _, item := range strings.Split(inner, ",") {
		text := strings.TrimSpace(item)
		start := itemPos + strings.Index(item, text)
		itemPos += len(item) + 1
		if text == "" {
			return fieldError(category, input, trimmed, pos, ErrMalformedField)
		}
		scope, err := resolveScope(category, action, text)
		if err != nil {
			return fieldError(category, input, text, start, err)
		}
		addScope(grants, action, scope)
	}
	return nil
}

func parseAction(keyword string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(keyword))) {
	case ActionRead:
		return ActionRead, true
	case ActionWrite:
		return ActionWrite, true
	case ActionCreate:
		return ActionCreate, true
	default:
		return "", false
	}
}

// resolveScope maps raw scope text to its canonical Scope value. It is
// pure: the owning category is only consulted for the legacy bracketed
// form's category-equality check.
func resolveScope(category Category, action Action, text string) (Scope, error) {
	if text == "*" {
		return Wildcard(), nil
	}
	if lower := strings.ToLower(text); lower == "true" || lower == "false" {
		if action != ActionCreate {
			return Scope{}, ErrInvalidScopeForAction
		}
		return Flag(lower == "true"), nil
	}
	if open := strings.IndexByte(text, '['); open >= 0 {
		if !strings.HasSuffix(text, "]") {
			return Scope{}, ErrMalformedField
		}
		if !strings.EqualFold(strings.TrimSpace(text[:open]), string(category)) {
			return Scope{}, ErrScopeCategoryMismatch
		}
		return resolveResourceID(action, strings.TrimSpace(text[open+1:len(text)-1]))
	}
	return resolveResourceID(action, text)
}

func resolveResourceID(action Action, digits string) (Scope, error) {
	if !isDigits(digits) {
		return Scope{}, ErrMalformedField
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Scope{}, ErrMalformedField
	}
	// CREATE has no resource id concept; a numeric scope on it is a data
	// error, rejected here rather than left for the evaluator to shrug at.
	if action == ActionCreate {
		return Scope{}, ErrInvalidScopeForAction
	}
	return ResourceID(id), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func addScope(grants map[Action]scopeSet, action Action, scope Scope) {
	if grants[action] == nil {
		grants[action] = make(scopeSet)
	}
	grants[action][scope] = struct{}{}
}
