package collections

import (
	"context"
	"testing"

	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
	"github.com/swiftbase/swiftbase/internal/query"
	"github.com/swiftbase/swiftbase/internal/realtime"
)

func testService(t *testing.T) (*Service, *query.Service) {
	t.Helper()
	tmpDir := t.TempDir()

	db, err := database.Open(&config.DatabaseConfig{
		Path:         tmpDir + "/test.db",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := realtime.NewHub(nil)
	qsvc := query.NewService(db, hub, nil)
	return NewService(db, qsvc), qsvc
}

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "products"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "products" {
		t.Errorf("Name = %q, want products", created.Name)
	}

	got, err := svc.Get(ctx, "products")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Get returned ID %q, want %q", got.ID, created.ID)
	}
}

func TestService_Create_DuplicateNameRejected(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Name: "orders"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Name: "orders"}); err == nil {
		t.Fatal("expected second Create with the same name to fail")
	}
}

func TestService_Create_RejectsUnsafeName(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.Create(context.Background(), CreateInput{Name: "bad name!"}); err == nil {
		t.Fatal("expected Create to reject an unsafe collection name")
	}
}

func TestService_List_GlobFilter(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	for _, name := range []string{"products_eu", "products_us", "orders"} {
		if _, err := svc.Create(ctx, CreateInput{Name: name}); err != nil {
			t.Fatalf("Create(%s) failed: %v", name, err)
		}
	}

	matched, err := svc.List(ctx, "products_*")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("List matched %d collections, want 2", len(matched))
	}
	for _, c := range matched {
		if c.Name != "products_eu" && c.Name != "products_us" {
			t.Errorf("unexpected collection %q matched by products_*", c.Name)
		}
	}
}

func TestService_DeleteCascadesDocuments(t *testing.T) {
	svc, qsvc := testService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Name: "notes"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := qsvc.Execute(ctx, query.Request{
		Action: query.ActionCreate, Collection: "notes",
		Data: map[string]any{"text": "hello"},
	}); err != nil {
		t.Fatalf("seeding document failed: %v", err)
	}

	if err := svc.Delete(ctx, "notes", true); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, "notes"); err == nil {
		t.Fatal("expected Get to fail after Delete")
	}
}
