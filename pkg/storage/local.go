package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// LocalArchive keeps uploads on the local filesystem, one directory per
// user, with a sidecar JSON metadata file next to each upload.
type LocalArchive struct {
	root string
}

// NewLocalArchive creates an archive rooted at the given directory.
func NewLocalArchive(root string) (*LocalArchive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create archive root: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

func (a *LocalArchive) userDir(userID uuid.UUID) string {
	return filepath.Join(a.root, userID.String())
}

func (a *LocalArchive) Save(_ context.Context, userID uuid.UUID, filename string, content []byte) (*UploadInfo, error) {
	dir := a.userDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create user dir: %w", err)
	}

	info := &UploadInfo{
		ID:         uuid.New(),
		Filename:   filepath.Base(filename),
		Size:       int64(len(content)),
		ArchivedAt: time.Now().UTC(),
	}

	dataPath := filepath.Join(dir, info.ID.String())
	if err := os.WriteFile(dataPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("storage: write upload: %w", err)
	}

	meta, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("storage: marshal metadata: %w", err)
	}
	if err := os.WriteFile(dataPath+".json", meta, 0o644); err != nil {
		return nil, fmt.Errorf("storage: write metadata: %w", err)
	}

	return info, nil
}

func (a *LocalArchive) Open(_ context.Context, userID uuid.UUID, uploadID uuid.UUID) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(a.userDir(userID), uploadID.String()))
	if err != nil {
		return nil, fmt.Errorf("storage: open upload: %w", err)
	}
	return f, nil
}

func (a *LocalArchive) List(_ context.Context, userID uuid.UUID) ([]*UploadInfo, error) {
	entries, err := os.ReadDir(a.userDir(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read user dir: %w", err)
	}

	uploads := make([]*UploadInfo, 0, len(entries)/2)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(a.userDir(userID), entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: read metadata: %w", err)
		}

		var info UploadInfo
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}
		uploads = append(uploads, &info)
	}

	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].ArchivedAt.After(uploads[j].ArchivedAt)
	})
	return uploads, nil
}
