package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/database"
)

// Service implements the File Metadata Service: payload storage is
// delegated to Backend, everything else (access control, listing,
// stats, sweep) is owned here against the _sb_files table.
type Service struct {
	db            *database.DB
	backend       Backend
	maxFileSize   int64
	compressAbove int64
	isAdmin       func(ctx context.Context, principalID string) bool
}

func NewService(db *database.DB, backend Backend, maxFileSize, compressAbove int64, isAdmin func(ctx context.Context, principalID string) bool) *Service {
	if maxFileSize <= 0 || maxFileSize > MaxFileSize {
		maxFileSize = MaxFileSize
	}
	return &Service{db: db, backend: backend, maxFileSize: maxFileSize, compressAbove: compressAbove, isAdmin: isAdmin}
}

// Upload validates, derives content type if absent, stores the payload,
// and inserts its metadata row.
func (s *Service) Upload(ctx context.Context, data []byte, in UploadInput) (*File, error) {
	if int64(len(data)) > s.maxFileSize {
		return nil, apperr.PayloadTooLarge(fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxFileSize))
	}

	contentType := in.ContentType
	if contentType == "" {
		head := data
		if len(head) > 512 {
			head = head[:512]
		}
		contentType = DetectContentType(in.OriginalName, head)
	}

	originalName := sanitizeOriginalName(in.OriginalName)
	metadata := in.Metadata
	if metadata != nil {
		metadata = make(map[string]any, len(in.Metadata))
		for k, v := range in.Metadata {
			if str, ok := v.(string); ok {
				v = filenamePolicy.Sanitize(str)
			}
			metadata[k] = v
		}
	}
	id := database.GenerateShortID()
	storedName := id

	compressed := s.compressAbove > 0 && int64(len(data)) > s.compressAbove
	storageKey := storedName
	if compressed {
		storageKey += ".zst"
	}

	var reader io.Reader = bytes.NewReader(data)
	if compressed {
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return nil, apperr.Internal(err)
		}
		if err := zw.Close(); err != nil {
			return nil, apperr.Internal(err)
		}
		reader = &buf
	}

	if err := s.backend.Put(ctx, storageKey, reader); err != nil {
		return nil, apperr.Storage(err)
	}

	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	file := &File{
		ID: id, StoredName: storageKey, OriginalName: originalName,
		ContentType: contentType, SizeBytes: int64(len(data)),
		Metadata: metadata, UploadedBy: in.PrincipalID,
	}

	err := s.db.Write(ctx, func(tx *database.Tx) error {
		now := database.Now()
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO _sb_files (id, stored_name, original_name, content_type, size_bytes, path, metadata, uploaded_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, storageKey, originalName, contentType, file.SizeBytes, storageKey, metadataJSON, in.PrincipalID, now)
		if execErr != nil {
			return apperr.Storage(execErr)
		}
		if t, parseErr := time.Parse(time.RFC3339, now); parseErr == nil {
			file.CreatedAt = t
		}
		return nil
	})
	if err != nil {
		_ = s.backend.Delete(ctx, storageKey)
		return nil, err
	}

	return file, nil
}

// GetMetadata returns a file's metadata row, enforcing the
// uploader-or-admin access rule.
func (s *Service) GetMetadata(ctx context.Context, id, principalID string) (*File, error) {
	f, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, f, principalID); err != nil {
		return nil, err
	}
	return f, nil
}

// GetBytes returns the payload (optionally a single byte range) plus
// its metadata, enforcing the same access rule.
func (s *Service) GetBytes(ctx context.Context, id, principalID string, rng *Range) (*File, io.ReadCloser, error) {
	f, err := s.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkAccess(ctx, f, principalID); err != nil {
		return nil, nil, err
	}

	rc, err := s.backend.Get(ctx, f.StoredName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, apperr.NotFound("file payload is missing")
		}
		return nil, nil, apperr.Storage(err)
	}

	if compressed(f.StoredName) {
		zr, zerr := zstd.NewReader(rc)
		if zerr != nil {
			rc.Close()
			return nil, nil, apperr.Internal(zerr)
		}
		rc = &zstdReadCloser{Decoder: zr, underlying: rc}
	}

	if rng == nil {
		return f, rc, nil
	}

	if _, err := io.CopyN(io.Discard, rc, rng.Start); err != nil {
		rc.Close()
		return nil, nil, apperr.Storage(err)
	}

	limit := int64(-1)
	if rng.End >= 0 {
		limit = rng.End - rng.Start + 1
	}
	if limit < 0 {
		return f, rc, nil
	}
	return f, &limitedReadCloser{r: io.LimitReader(rc, limit), closer: rc}, nil
}

// List returns the principal's files, or every file for an admin.
func (s *Service) List(ctx context.Context, principalID string, filter ListFilter) ([]File, error) {
	admin := s.isAdminPrincipal(ctx, principalID)

	query := `SELECT id, stored_name, original_name, content_type, size_bytes, metadata, uploaded_by, created_at FROM _sb_files WHERE 1=1`
	var args []any
	if !admin {
		query += ` AND uploaded_by = ?`
		args = append(args, principalID)
	}
	if filter.ContentType != "" {
		query += ` AND content_type = ?`
		args = append(args, filter.ContentType)
	}
	if filter.Search != "" {
		query += ` AND original_name LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Delete removes both payload and metadata for a file, enforcing the
// access rule.
func (s *Service) Delete(ctx context.Context, id, principalID string) error {
	f, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkAccess(ctx, f, principalID); err != nil {
		return err
	}

	if err := s.db.Write(ctx, func(tx *database.Tx) error {
		_, execErr := tx.ExecContext(ctx, `DELETE FROM _sb_files WHERE id = ?`, id)
		if execErr != nil {
			return apperr.Storage(execErr)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.backend.Delete(ctx, f.StoredName); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// Stats returns totals for a principal's own files, or global totals
// when principalID is empty; the HTTP handler always passes the
// caller's own id.
func (s *Service) Stats(ctx context.Context, principalID string) (*Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM _sb_files`
	var args []any
	if principalID != "" {
		query += ` WHERE uploaded_by = ?`
		args = append(args, principalID)
	}

	var stats Stats
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.Count, &stats.TotalBytes); err != nil {
		return nil, apperr.Storage(err)
	}
	return &stats, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, stored_name, original_name, content_type, size_bytes, metadata, uploaded_by, created_at
		FROM _sb_files WHERE id = ?
	`, id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("file not found")
	}
	return f, err
}

func (s *Service) checkAccess(ctx context.Context, f *File, principalID string) error {
	if f.UploadedBy == principalID {
		return nil
	}
	if s.isAdminPrincipal(ctx, principalID) {
		return nil
	}
	return apperr.Forbidden("not authorized to access this file")
}

func (s *Service) isAdminPrincipal(ctx context.Context, principalID string) bool {
	if s.isAdmin == nil {
		return false
	}
	return s.isAdmin(ctx, principalID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(scanner rowScanner) (*File, error) {
	var (
		f            File
		metadataJSON string
		uploadedBy   sql.NullString
		createdAt    string
	)
	err := scanner.Scan(&f.ID, &f.StoredName, &f.OriginalName, &f.ContentType, &f.SizeBytes, &metadataJSON, &uploadedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Storage(err)
	}
	_ = json.Unmarshal([]byte(metadataJSON), &f.Metadata)
	f.UploadedBy = uploadedBy.String
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		f.CreatedAt = t
	}
	return &f, nil
}

func compressed(storedName string) bool {
	return len(storedName) > 4 && storedName[len(storedName)-4:] == ".zst"
}

type zstdReadCloser struct {
	*zstd.Decoder
	underlying io.ReadCloser
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.underlying.Close()
}

type limitedReadCloser struct {
	r      io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedReadCloser) Close() error                { return l.closer.Close() }
