package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kaan/schoolhub/internal/pkg/logger"
)

// Local stores blobs on the local filesystem.
type Local struct{}

// NewLocal creates a new filesystem-backed blob store.
func NewLocal() *Local {
	return &Local{}
}

var _ Store = (*Local)(nil)

// Put writes data to path via a temp file in the same directory followed by
// a rename, so the content at path is always either the old blob or the new
// one in full.
func (s *Local) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create blob directory")
		return fmt.Errorf("failed to create blob directory %s: %w", dir, err)
	}

	// Unique temp name so concurrent writers never step on each other's
	// in-progress file.
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", tmpPath).Msg("Failed to write blob temp file")
		return fmt.Errorf("failed to write blob: %w", err)
	}

	// If the caller gave up while we were writing, the partial result must
	// not become visible.
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		logger.Error().Err(err).Str("path", path).Msg("Failed to move blob into place")
		return fmt.Errorf("failed to move blob into place: %w", err)
	}

	return nil
}

// Get reads the blob at path.
func (s *Local) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Str("path", path).Msg("Failed to read blob")
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	return data, nil
}

// Delete removes the blob at path. A missing file counts as success.
func (s *Local) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("path", path).Msg("Blob to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", path).Msg("Failed to delete blob")
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}
