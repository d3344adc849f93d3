package storage

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"
)

// magicNumbers maps a handful of well-known binary signatures to their
// content type, consulted when the caller omits content_type and the
// extension table comes up empty.
var magicNumbers = []struct {
	sig         []byte
	contentType string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte("%PDF-"), "application/pdf"},
	{[]byte("PK\x03\x04"), "application/zip"},
	{[]byte{0x1F, 0x8B}, "application/gzip"},
	{[]byte("RIFF"), "audio/wav"},
	{[]byte("\x00\x00\x00\x18ftyp"), "video/mp4"},
	{[]byte("\x00\x00\x00\x20ftyp"), "video/mp4"},
}

// DetectContentType derives a MIME type for a file when the caller did
// not supply one: first by file extension, then by magic-number
// sniffing the first bytes of the payload, falling back to the generic
// octet-stream type.
func DetectContentType(originalName string, head []byte) string {
	if ext := filepath.Ext(originalName); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return stripParams(ct)
		}
	}

	for _, m := range magicNumbers {
		if bytes.HasPrefix(head, m.sig) {
			return m.contentType
		}
	}

	return "application/octet-stream"
}

func stripParams(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		return strings.TrimSpace(contentType[:i])
	}
	return contentType
}
