package policy

import (
	"errors"
	"reflect"
	"testing"
)

func mustBuild(t *testing.T, fields map[Category]string) *Set {
	t.Helper()
	set, err := Build(fields)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return set
}

func TestBuildFullGrant(t *testing.T) {
	set := mustBuild(t, map[Category]string{
		CategoryEquipment: "READ(*)|WRITE(*)|CREATE(true)",
	})

	if got := set.ScopesFor(CategoryEquipment, ActionRead); !reflect.DeepEqual(got, []Scope{Wildcard()}) {
		t.Fatalf("read scopes = %v", got)
	}
	if got := set.ScopesFor(CategoryEquipment, ActionWrite); !reflect.DeepEqual(got, []Scope{Wildcard()}) {
		t.Fatalf("write scopes = %v", got)
	}
	if got := set.ScopesFor(CategoryEquipment, ActionCreate); !reflect.DeepEqual(got, []Scope{Flag(true)}) {
		t.Fatalf("create scopes = %v", got)
	}
}

func TestBuildLegacyBracketNormalizes(t *testing.T) {
	legacy := mustBuild(t, map[Category]string{CategoryEquipment: "READ(equipment[2])"})
	bare := mustBuild(t, map[Category]string{CategoryEquipment: "READ(2)"})

	if !reflect.DeepEqual(legacy, bare) {
		t.Fatalf("legacy form %+v differs from bare form %+v", legacy, bare)
	}
	if got := legacy.ScopesFor(CategoryEquipment, ActionRead); !reflect.DeepEqual(got, []Scope{ResourceID(2)}) {
		t.Fatalf("read scopes = %v", got)
	}
}

func TestBuildBracketCaseInsensitiveCategory(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryEquipment: "READ(EQUIPMENT[7])"})
	if got := set.ScopesFor(CategoryEquipment, ActionRead); !reflect.DeepEqual(got, []Scope{ResourceID(7)}) {
		t.Fatalf("read scopes = %v", got)
	}
}

func TestBuildCategoryMismatch(t *testing.T) {
	_, err := Build(map[Category]string{CategoryEquipment: "READ(user[2])"})
	if !errors.Is(err, ErrScopeCategoryMismatch) {
		t.Fatalf("expected ErrScopeCategoryMismatch, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %T", err)
	}
	if fieldErr.Fragment != "user[2]" {
		t.Fatalf("unexpected fragment %q", fieldErr.Fragment)
	}
}

func TestBuildCommaSeparatedScopes(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryTodo: "READ(1, 3 ,5)|CREATE(false)"})
	want := []Scope{ResourceID(1), ResourceID(3), ResourceID(5)}
	if got := set.ScopesFor(CategoryTodo, ActionRead); !reflect.DeepEqual(got, want) {
		t.Fatalf("read scopes = %v", got)
	}
	if got := set.ScopesFor(CategoryTodo, ActionCreate); !reflect.DeepEqual(got, []Scope{Flag(false)}) {
		t.Fatalf("create scopes = %v", got)
	}
}

func TestBuildDuplicateActionsUnion(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryTodo: "READ(1)|READ(2)|READ(1)"})
	want := []Scope{ResourceID(1), ResourceID(2)}
	if got := set.ScopesFor(CategoryTodo, ActionRead); !reflect.DeepEqual(got, want) {
		t.Fatalf("read scopes = %v", got)
	}
}

func TestBuildWriteImpliesRead(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryEquipment: "READ(1)|WRITE(2,3)"})
	want := []Scope{ResourceID(1), ResourceID(2), ResourceID(3)}
	if got := set.ScopesFor(CategoryEquipment, ActionRead); !reflect.DeepEqual(got, want) {
		t.Fatalf("read scopes = %v", got)
	}

	set = mustBuild(t, map[Category]string{CategoryEquipment: "READ(1)|WRITE(*)"})
	if got := set.ScopesFor(CategoryEquipment, ActionRead); !reflect.DeepEqual(got, []Scope{Wildcard(), ResourceID(1)}) {
		t.Fatalf("read scopes = %v", got)
	}
}

func TestBuildCaseAndWhitespaceTolerant(t *testing.T) {
	variants := []string{
		"READ(*)|WRITE(*)|CREATE(true)",
		"read(*)|write(*)|create(TRUE)",
		"ReAd( * ) | WriTE(* )| CREATE( true )",
	}
	want := mustBuild(t, map[Category]string{CategoryUser: variants[0]})
	for _, variant := range variants[1:] {
		got := mustBuild(t, map[Category]string{CategoryUser: variant})
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("variant %q parsed differently", variant)
		}
	}
}

func TestBuildEmptyFieldYieldsEmptyGrant(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryTodo: "", CategoryUser: "  "})
	if got := set.ScopesFor(CategoryTodo, ActionRead); len(got) != 0 {
		t.Fatalf("expected no scopes, got %v", got)
	}
	if got := set.Categories(); !reflect.DeepEqual(got, []Category{CategoryTodo, CategoryUser}) {
		t.Fatalf("categories = %v", got)
	}
}

func TestBuildIdempotent(t *testing.T) {
	fields := map[Category]string{
		CategoryEquipment: "WRITE(3)|READ(1,2)|CREATE(true)",
		CategoryTodo:      "READ(*)",
	}
	first := mustBuild(t, fields)
	second := mustBuild(t, fields)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-parsing produced a different set")
	}
}

func TestBuildAtomicFailure(t *testing.T) {
	set, err := Build(map[Category]string{
		CategoryEquipment: "READ(*)",
		CategoryTodo:      "REED(*)",
	})
	if err == nil {
		t.Fatalf("expected error, got set %+v", set)
	}
	if set != nil {
		t.Fatalf("expected nil set on failure")
	}
}

func TestBuildMalformedInputs(t *testing.T) {
	cases := []struct {
		name  string
		field string
		want  error
	}{
		{"unknown action", "REED(*)", ErrMalformedField},
		{"create with id", "CREATE(5)", ErrInvalidScopeForAction},
		{"create with bracket id", "CREATE(todo[5])", ErrInvalidScopeForAction},
		{"flag on read", "READ(true)", ErrInvalidScopeForAction},
		{"flag on write", "WRITE(false)", ErrInvalidScopeForAction},
		{"empty clause", "READ(*)||WRITE(*)", ErrMalformedField},
		{"missing parens", "READ", ErrMalformedField},
		{"unbalanced parens", "READ(*", ErrMalformedField},
		{"empty scope", "READ()", ErrMalformedField},
		{"unclosed bracket", "READ(todo[2)", ErrMalformedField},
		{"non numeric id", "READ(abc)", ErrMalformedField},
		{"negative id", "READ(-3)", ErrMalformedField},
		{"garbage", "lorem ipsum", ErrMalformedField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(map[Category]string{CategoryTodo: tc.field})
			if !errors.Is(err, tc.want) {
				t.Fatalf("field %q: expected %v, got %v", tc.field, tc.want, err)
			}
			if !errors.Is(err, ErrMalformedField) && !errors.Is(err, ErrInvalidScopeForAction) {
				t.Fatalf("field %q: error %v is not a parse error", tc.field, err)
			}
		})
	}
}

func TestFieldErrorPosition(t *testing.T) {
	input := "READ(*)|WRITE(oops)"
	_, err := Build(map[Category]string{CategoryTodo: input})
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Fragment != "oops" {
		t.Fatalf("fragment = %q", fieldErr.Fragment)
	}
	if fieldErr.Pos != 14 {
		t.Fatalf("pos = %d, want 14", fieldErr.Pos)
	}
	if fieldErr.Input != input {
		t.Fatalf("input = %q", fieldErr.Input)
	}
}
