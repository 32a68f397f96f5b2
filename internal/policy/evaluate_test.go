package policy

import (
	"errors"
	"reflect"
	"testing"
)

func TestAuthorizeWildcardDominates(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryEquipment: "READ(*)|READ(5)"})

	verdict, err := set.Authorize(CategoryEquipment, ActionRead, 999)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if !verdict.Allowed || verdict.Reason != ReasonWildcard {
		t.Fatalf("verdict = %+v", verdict)
	}
}

func TestAuthorizeExplicitIDs(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryTodo: "READ(1,3)"})

	for _, id := range []int64{1, 3} {
		verdict, err := set.Authorize(CategoryTodo, ActionRead, id)
		if err != nil {
			t.Fatalf("Authorize(%d): %v", id, err)
		}
		if !verdict.Allowed || verdict.Reason != ReasonResourceMatch {
			t.Fatalf("Authorize(%d) = %+v", id, verdict)
		}
	}
	verdict, err := set.Authorize(CategoryTodo, ActionRead, 2)
	if err != nil {
		t.Fatalf("Authorize(2): %v", err)
	}
	if verdict.Allowed || verdict.Reason != ReasonResourceMiss {
		t.Fatalf("Authorize(2) = %+v", verdict)
	}
}

func TestAuthorizeNoGrantDenies(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryTodo: ""})

	for _, action := range []Action{ActionRead, ActionWrite, ActionCreate} {
		verdict, err := set.Authorize(CategoryTodo, action, 1)
		if err != nil {
			t.Fatalf("Authorize(%s): %v", action, err)
		}
		if verdict.Allowed || verdict.Reason != ReasonNoGrant {
			t.Fatalf("Authorize(%s) = %+v", action, verdict)
		}
	}
}

func TestAuthorizeCreateIgnoresResourceID(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryTodo: "CREATE(true)"})

	for _, id := range []int64{0, 7, -1} {
		verdict, err := set.Authorize(CategoryTodo, ActionCreate, id)
		if err != nil {
			t.Fatalf("Authorize create: %v", err)
		}
		if !verdict.Allowed || verdict.Reason != ReasonCreateGranted {
			t.Fatalf("create verdict = %+v", verdict)
		}
	}

	denied := mustBuild(t, map[Category]string{CategoryTodo: "CREATE(false)"})
	verdict, err := denied.AuthorizeCreate(CategoryTodo)
	if err != nil {
		t.Fatalf("AuthorizeCreate: %v", err)
	}
	if verdict.Allowed || verdict.Reason != ReasonCreateDenied {
		t.Fatalf("create verdict = %+v", verdict)
	}
}

func TestAuthorizeCreateResourceScopeDenied(t *testing.T) {
	// The parser rejects CREATE(5), but a programmatically assembled set
	// can still carry it. The evaluator must deny and flag it.
	set := &Set{grants: map[Category]map[Action]scopeSet{
		CategoryTodo: {ActionCreate: {ResourceID(5): {}}},
	}}

	verdict, err := set.AuthorizeCreate(CategoryTodo)
	if err != nil {
		t.Fatalf("AuthorizeCreate: %v", err)
	}
	if verdict.Allowed || verdict.Reason != ReasonCreateResourceScope {
		t.Fatalf("verdict = %+v", verdict)
	}
}

func TestAuthorizeUnknownCategory(t *testing.T) {
	set := mustBuild(t, map[Category]string{CategoryTodo: "READ(*)"})

	_, err := set.Authorize(Category("vehicle"), ActionRead, 1)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestListFilter(t *testing.T) {
	set := mustBuild(t, map[Category]string{
		CategoryTodo:      "READ(3,1)|WRITE(2)",
		CategoryEquipment: "READ(*)",
		CategoryUser:      "",
	})

	filter, err := set.ListFilter(CategoryTodo, ActionRead)
	if err != nil {
		t.Fatalf("ListFilter: %v", err)
	}
	if filter.All {
		t.Fatalf("expected restricted filter")
	}
	if !reflect.DeepEqual(filter.IDs, []int64{1, 2, 3}) {
		t.Fatalf("ids = %v", filter.IDs)
	}
	if !filter.Match(2) || filter.Match(4) {
		t.Fatalf("match behaviour wrong: %+v", filter)
	}

	all, err := set.ListFilter(CategoryEquipment, ActionRead)
	if err != nil {
		t.Fatalf("ListFilter: %v", err)
	}
	if !all.All || !all.Match(12345) {
		t.Fatalf("expected unrestricted filter, got %+v", all)
	}

	none, err := set.ListFilter(CategoryUser, ActionRead)
	if err != nil {
		t.Fatalf("ListFilter: %v", err)
	}
	if none.All || none.Match(1) {
		t.Fatalf("expected empty filter, got %+v", none)
	}
}

func TestFilterInClause(t *testing.T) {
	if got := (Filter{All: true}).InClause("id"); got != "" {
		t.Fatalf("unrestricted clause = %q", got)
	}
	if got := (Filter{}).InClause("id"); got != "FALSE" {
		t.Fatalf("empty clause = %q", got)
	}
	if got := (Filter{IDs: []int64{1, 2, 3}}).InClause("person"); got != "person IN (1,2,3)" {
		t.Fatalf("clause = %q", got)
	}
}
