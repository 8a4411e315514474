// Package storage archives raw statement uploads so a disputed import can
// be replayed or inspected after the fact.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// UploadInfo is the metadata of one archived statement upload.
type UploadInfo struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Archive stores raw uploads per user. Implementations are write-mostly;
// reads happen only when an import is being investigated.
type Archive interface {
	// Save archives one upload and returns its metadata.
	Save(ctx context.Context, userID uuid.UUID, filename string, content []byte) (*UploadInfo, error)

	// Open returns the archived content of an upload.
	Open(ctx context.Context, userID uuid.UUID, uploadID uuid.UUID) (io.ReadCloser, error)

	// List returns a user's archived uploads, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*UploadInfo, error)
}
