package query

import "testing"

func TestParse_RejectsUnsafeCollectionName(t *testing.T) {
	_, err := Parse(Request{Action: ActionFind, Collection: "users; DROP TABLE users"})
	if err == nil {
		t.Fatal("expected Parse to reject an unsafe collection name")
	}
}

func TestParse_RejectsUnknownAction(t *testing.T) {
	_, err := Parse(Request{Action: "destroy", Collection: "users"})
	if err == nil {
		t.Fatal("expected Parse to reject an unknown action")
	}
}

func TestParse_FindDefaultsLimit(t *testing.T) {
	p, err := Parse(Request{Action: ActionFind, Collection: "users"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want default %d", p.Limit, DefaultLimit)
	}
}

func TestParse_RejectsLimitOutOfRange(t *testing.T) {
	tooBig := MaxLimit + 1
	_, err := Parse(Request{
		Action:     ActionFind,
		Collection: "users",
		Query:      &QueryOptions{Limit: &tooBig},
	})
	if err == nil {
		t.Fatal("expected Parse to reject a limit above MaxLimit")
	}
}

func TestParse_RejectsBadOrderByDirection(t *testing.T) {
	_, err := Parse(Request{
		Action:     ActionFind,
		Collection: "users",
		Query:      &QueryOptions{OrderBy: map[string]string{"name": "sideways"}},
	})
	if err == nil {
		t.Fatal("expected Parse to reject an invalid orderBy direction")
	}
}

func TestParse_CreateRequiresData(t *testing.T) {
	_, err := Parse(Request{Action: ActionCreate, Collection: "users"})
	if err == nil {
		t.Fatal("expected Parse to reject create with no data")
	}

	p, err := Parse(Request{
		Action:     ActionCreate,
		Collection: "users",
		Data:       map[string]any{"name": "Ada"},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Create["name"] != "Ada" {
		t.Errorf("Create[name] = %v, want Ada", p.Create["name"])
	}
}

func TestParse_CustomRequiresName(t *testing.T) {
	_, err := Parse(Request{Action: ActionCustom})
	if err == nil {
		t.Fatal("expected Parse to reject custom action with no name")
	}

	p, err := Parse(Request{Action: ActionCustom, Custom: "topSellers", Params: map[string]any{"limit": 10}})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Custom != "topSellers" {
		t.Errorf("Custom = %q, want topSellers", p.Custom)
	}
}

func TestParse_WhereBuildsConditionTree(t *testing.T) {
	limit := 5
	p, err := Parse(Request{
		Action:     ActionFind,
		Collection: "products",
		Query: &QueryOptions{
			Where: map[string]any{"price": map[string]any{"$gt": 10}},
			Limit: &limit,
		},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Where == nil {
		t.Fatal("expected a non-nil Where condition tree")
	}
	if p.Limit != 5 {
		t.Errorf("Limit = %d, want 5", p.Limit)
	}
}
