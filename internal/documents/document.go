// Package documents registers the contracts submitted for review. Content is
// kept in blob storage; metadata is a row in the documents table.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded artifact and its blob storage reference.
type Document struct {
	ID          uuid.UUID `json:"id"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	Checksum    string    `json:"checksum"`
	StorageKey  string    `json:"storage_key"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CreateCommand carries the bytes and ownership of a new document. The page
// count of PDF content is computed on create.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	SessionID   string
	UserID      string
}
