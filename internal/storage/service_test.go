package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
)

func testStorageService(t *testing.T, maxFileSize, compressAbove int64, isAdmin func(context.Context, string) bool) *Service {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Path:         t.TempDir() + "/test.db",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backend := NewFilesystemBackend(t.TempDir())
	return NewService(db, backend, maxFileSize, compressAbove, isAdmin)
}

func TestService_UploadAndGetBytes(t *testing.T) {
	svc := testStorageService(t, 0, 0, nil)
	ctx := context.Background()

	f, err := svc.Upload(ctx, []byte("hello world"), UploadInput{
		OriginalName: "note.txt", PrincipalID: "user_1",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if f.ContentType == "" {
		t.Error("expected a detected content type")
	}

	_, rc, err := svc.GetBytes(ctx, f.ID, "user_1", nil)
	if err != nil {
		t.Fatalf("GetBytes failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello world" {
		t.Errorf("body = %q, want hello world", string(data))
	}
}

func TestService_Upload_RejectsOversizedFile(t *testing.T) {
	svc := testStorageService(t, 4, 0, nil)
	_, err := svc.Upload(context.Background(), []byte("too big"), UploadInput{OriginalName: "x.txt"})
	if err == nil {
		t.Fatal("expected Upload to reject a file over maxFileSize")
	}
}

func TestService_Upload_CompressesAboveThreshold(t *testing.T) {
	svc := testStorageService(t, 0, 4, nil)
	f, err := svc.Upload(context.Background(), []byte("this payload exceeds the threshold"), UploadInput{
		OriginalName: "big.txt",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !compressed(f.StoredName) {
		t.Errorf("StoredName = %q, want a .zst suffix", f.StoredName)
	}

	_, rc, err := svc.GetBytes(context.Background(), f.ID, "", nil)
	if err != nil {
		t.Fatalf("GetBytes failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "this payload exceeds the threshold" {
		t.Errorf("decompressed body = %q, want the original payload", string(data))
	}
}

func TestService_GetBytes_ForbiddenForOtherPrincipal(t *testing.T) {
	svc := testStorageService(t, 0, 0, nil)
	f, err := svc.Upload(context.Background(), []byte("secret"), UploadInput{
		OriginalName: "s.txt", PrincipalID: "owner",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if _, _, err := svc.GetBytes(context.Background(), f.ID, "someone-else", nil); err == nil {
		t.Fatal("expected GetBytes to reject a non-owner, non-admin principal")
	}
}

func TestService_GetBytes_AdminBypassesOwnership(t *testing.T) {
	isAdmin := func(ctx context.Context, id string) bool { return id == "root" }
	svc := testStorageService(t, 0, 0, isAdmin)
	f, err := svc.Upload(context.Background(), []byte("secret"), UploadInput{
		OriginalName: "s.txt", PrincipalID: "owner",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if _, _, err := svc.GetBytes(context.Background(), f.ID, "root", nil); err != nil {
		t.Errorf("expected admin to bypass ownership check, got %v", err)
	}
}

func TestService_GetBytes_RangeRequest(t *testing.T) {
	svc := testStorageService(t, 0, 0, nil)
	f, err := svc.Upload(context.Background(), []byte("0123456789"), UploadInput{
		OriginalName: "r.txt", PrincipalID: "user_1",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	_, rc, err := svc.GetBytes(context.Background(), f.ID, "user_1", &Range{Start: 2, End: 5})
	if err != nil {
		t.Fatalf("GetBytes failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "2345" {
		t.Errorf("range body = %q, want 2345", string(data))
	}
}

func TestService_DeleteRemovesMetadataAndPayload(t *testing.T) {
	svc := testStorageService(t, 0, 0, nil)
	ctx := context.Background()
	f, err := svc.Upload(ctx, []byte("bye"), UploadInput{OriginalName: "bye.txt", PrincipalID: "user_1"})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if err := svc.Delete(ctx, f.ID, "user_1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.GetMetadata(ctx, f.ID, "user_1"); err == nil {
		t.Fatal("expected GetMetadata to fail after Delete")
	}
}

func TestService_ListScopesToOwnerByDefault(t *testing.T) {
	svc := testStorageService(t, 0, 0, nil)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, []byte("a"), UploadInput{OriginalName: "a.txt", PrincipalID: "user_1"}); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := svc.Upload(ctx, []byte("b"), UploadInput{OriginalName: "b.txt", PrincipalID: "user_2"}); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	files, err := svc.List(ctx, "user_1", ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 || files[0].UploadedBy != "user_1" {
		t.Errorf("List(user_1) = %+v, want only user_1's file", files)
	}
}

func TestService_Stats(t *testing.T) {
	svc := testStorageService(t, 0, 0, nil)
	ctx := context.Background()
	if _, err := svc.Upload(ctx, bytes.Repeat([]byte("x"), 10), UploadInput{OriginalName: "a.txt", PrincipalID: "user_1"}); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	stats, err := svc.Stats(ctx, "user_1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Count != 1 || stats.TotalBytes != 10 {
		t.Errorf("Stats = %+v, want count=1 total_bytes=10", stats)
	}
}
