package query

import "testing"

func TestParseWhere_Empty(t *testing.T) {
	cond, err := ParseWhere(nil)
	if err != nil {
		t.Fatalf("ParseWhere(nil) error: %v", err)
	}
	if cond != nil {
		t.Errorf("ParseWhere(nil) = %+v, want nil", cond)
	}
}

func TestParseWhere_ImplicitEq(t *testing.T) {
	cond, err := ParseWhere(map[string]any{"status": "active"})
	if err != nil {
		t.Fatalf("ParseWhere error: %v", err)
	}
	if cond.Field != "status" || cond.Op != OpEq || cond.Value != "active" {
		t.Errorf("got %+v, want field=status op=$eq value=active", cond)
	}
}

func TestParseWhere_RejectsUnknownOperator(t *testing.T) {
	_, err := ParseWhere(map[string]any{"age": map[string]any{"$bogus": 1}})
	if err == nil {
		t.Fatal("expected an error for an unknown operator")
	}
}

func TestParseWhere_RejectsUnsafeFieldName(t *testing.T) {
	_, err := ParseWhere(map[string]any{"a; DROP TABLE x": "y"})
	if err == nil {
		t.Fatal("expected an error for an unsafe field name")
	}
}

func TestParseWhere_AndCombinator(t *testing.T) {
	cond, err := ParseWhere(map[string]any{
		"$and": []any{
			map[string]any{"age": map[string]any{"$gt": 18}},
			map[string]any{"active": true},
		},
	})
	if err != nil {
		t.Fatalf("ParseWhere error: %v", err)
	}
	if cond.Logical != opAnd || len(cond.Children) != 2 {
		t.Fatalf("got %+v, want a 2-child $and node", cond)
	}
}

func TestParseWhere_NotRequiresObject(t *testing.T) {
	_, err := ParseWhere(map[string]any{"$not": []any{1, 2}})
	if err == nil {
		t.Fatal("expected an error when $not is not given an object")
	}
}

func TestIsValidFieldPath(t *testing.T) {
	cases := map[string]bool{
		"name":             true,
		"profile.city":     true,
		"a-b_c":            true,
		"":                 false,
		"a b":              false,
		"a;DROP":           false,
		"$where":           false,
	}
	for field, want := range cases {
		if got := IsValidFieldPath(field); got != want {
			t.Errorf("IsValidFieldPath(%q) = %v, want %v", field, got, want)
		}
	}
}
