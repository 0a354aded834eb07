package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
	"github.com/kaan/schoolhub/internal/pkg/blobstore"
	"github.com/kaan/schoolhub/internal/pkg/helpers"
	"github.com/kaan/schoolhub/internal/pkg/logger"
)

// AvatarRecords is the record-store surface the avatar service needs.
type AvatarRecords interface {
	Save(ctx context.Context, avatar *models.Avatar) (*models.Avatar, error)
	GetByStudentID(ctx context.Context, studentID int64) (*models.Avatar, error)
	GetByID(ctx context.Context, id int64) (*models.Avatar, error)
	ExistsByStudentID(ctx context.Context, studentID int64) (bool, error)
	DeleteByStudentID(ctx context.Context, studentID int64) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	CountByStudentID(ctx context.Context, studentID int64) (int64, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset uint64, limit int) ([]*models.Avatar, int64, error)
	ListLargerThan(ctx context.Context, minSize int64) ([]*models.Avatar, error)
}

// StudentLookup resolves student existence. The avatar service only ever
// reads from it.
type StudentLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// AvatarService manages the avatar owned by a student: the blob on disk and
// the record (with a cached copy of the bytes) in the database.
type AvatarService interface {
	Upload(ctx context.Context, studentID int64, contentType string, data []byte) (*models.Avatar, error)
	Replace(ctx context.Context, studentID int64, contentType string, data []byte) (*models.Avatar, error)
	GetByStudentID(ctx context.Context, studentID int64) (*models.Avatar, error)
	GetByID(ctx context.Context, avatarID int64) (*models.Avatar, error)
	DataFromRecord(ctx context.Context, studentID int64) ([]byte, string, error)
	DataFromDisk(ctx context.Context, studentID int64) ([]byte, string, error)
	Exists(ctx context.Context, studentID int64) (bool, error)
	List(ctx context.Context, page, size int) (*models.AvatarPage, error)
	FilterByMinSize(ctx context.Context, minSize int64) ([]*models.Avatar, error)
	Count(ctx context.Context) (int64, error)
	DeleteByStudentID(ctx context.Context, studentID int64) error
	DeleteByID(ctx context.Context, avatarID int64) error
}

// avatarServiceImpl implements the AvatarService interface
type avatarServiceImpl struct {
	records   AvatarRecords
	students  StudentLookup
	blobs     blobstore.Store
	avatarDir string
}

// NewAvatarService creates a new avatar service instance. avatarDir is the
// directory new blobs are written to.
func NewAvatarService(records AvatarRecords, students StudentLookup, blobs blobstore.Store, avatarDir string) AvatarService {
	return &avatarServiceImpl{
		records:   records,
		students:  students,
		blobs:     blobs,
		avatarDir: avatarDir,
	}
}

// blobPath derives the blob location from the student ID alone. Re-deriving
// it must always land on the same file, which is what lets Replace overwrite
// the blob in place.
func (s *avatarServiceImpl) blobPath(studentID int64) string {
	return filepath.Join(s.avatarDir, fmt.Sprintf("%d.png", studentID))
}

// checkMediaType gates uploads to PNG only
func checkMediaType(contentType string) error {
	if contentType != models.MediaTypePNG {
		return fmt.Errorf("%w: only %s is accepted, got %q",
			apperrors.ErrUnsupportedMediaType, models.MediaTypePNG, contentType)
	}
	return nil
}

// Upload creates the avatar for a student that does not have one yet.
//
// The blob is written before the record is saved: a crash in between leaves
// an orphaned file that a sweep can find by comparing the directory against
// the records, whereas the opposite order would leave a record pointing at a
// file that was never written.
func (s *avatarServiceImpl) Upload(ctx context.Context, studentID int64, contentType string, data []byte) (*models.Avatar, error) {
	if err := checkMediaType(contentType); err != nil {
		return nil, err
	}

	studentExists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error resolving student: %w", err)
	}
	if !studentExists {
		return nil, apperrors.ErrStudentNotFound
	}

	// Fast-path check only. The unique constraint on the record store is
	// what actually arbitrates concurrent uploads.
	avatarExists, err := s.records.ExistsByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking avatar existence: %w", err)
	}
	if avatarExists {
		return nil, apperrors.ErrAvatarAlreadyExists
	}

	path := s.blobPath(studentID)
	if err := s.blobs.Put(ctx, path, data); err != nil {
		return nil, apperrors.NewStorageError("writing avatar blob", err)
	}

	avatar := &models.Avatar{
		StudentID: studentID,
		FilePath:  path,
		FileSize:  int64(len(data)),
		MediaType: models.MediaTypePNG,
		Data:      data,
	}

	saved, err := s.records.Save(ctx, avatar)
	if err != nil {
		if errors.Is(err, apperrors.ErrAvatarAlreadyExists) {
			// Lost the race against a concurrent upload for the same
			// student; the winner's blob occupies the shared path.
			return nil, apperrors.ErrAvatarAlreadyExists
		}
		return nil, fmt.Errorf("error saving avatar record: %w", err)
	}

	logger.Info().Int64("studentID", studentID).Int64("avatarID", saved.ID).Int64("size", saved.FileSize).Msg("Avatar uploaded")
	return saved, nil
}

// Replace overwrites the blob and record of an existing avatar with new
// bytes. Identity is preserved: id, student and file path do not change.
func (s *avatarServiceImpl) Replace(ctx context.Context, studentID int64, contentType string, data []byte) (*models.Avatar, error) {
	if err := checkMediaType(contentType); err != nil {
		return nil, err
	}

	existing, err := s.records.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAvatarNotFound) {
			return nil, apperrors.ErrAvatarNotFound
		}
		return nil, fmt.Errorf("error retrieving avatar: %w", err)
	}

	// Write to the path already on the record, blob first for the same
	// crash-ordering reason as Upload.
	if err := s.blobs.Put(ctx, existing.FilePath, data); err != nil {
		return nil, apperrors.NewStorageError("replacing avatar blob", err)
	}

	existing.FileSize = int64(len(data))
	existing.Data = data

	saved, err := s.records.Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("error saving avatar record: %w", err)
	}

	logger.Info().Int64("studentID", studentID).Int64("avatarID", saved.ID).Int64("size", saved.FileSize).Msg("Avatar replaced")
	return saved, nil
}

// GetByStudentID retrieves the avatar record owned by a student
func (s *avatarServiceImpl) GetByStudentID(ctx context.Context, studentID int64) (*models.Avatar, error) {
	avatar, err := s.records.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAvatarNotFound) {
			return nil, apperrors.ErrAvatarNotFound
		}
		return nil, fmt.Errorf("error retrieving avatar: %w", err)
	}
	return avatar, nil
}

// GetByID retrieves an avatar record by its own ID
func (s *avatarServiceImpl) GetByID(ctx context.Context, avatarID int64) (*models.Avatar, error) {
	avatar, err := s.records.GetByID(ctx, avatarID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAvatarNotFound) {
			return nil, apperrors.ErrAvatarNotFound
		}
		return nil, fmt.Errorf("error retrieving avatar: %w", err)
	}
	return avatar, nil
}

// DataFromRecord returns the image bytes cached on the record itself. It
// works even when the blob file was lost.
func (s *avatarServiceImpl) DataFromRecord(ctx context.Context, studentID int64) ([]byte, string, error) {
	avatar, err := s.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	return avatar.Data, avatar.MediaType, nil
}

// DataFromDisk re-reads the image bytes from the blob store at the record's
// path. It works even when the cached column is stale; a record whose file
// is gone yields ErrBlobMissing, not ErrAvatarNotFound.
func (s *avatarServiceImpl) DataFromDisk(ctx context.Context, studentID int64) ([]byte, string, error) {
	avatar, err := s.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	data, err := s.blobs.Get(ctx, avatar.FilePath)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %s", apperrors.ErrBlobMissing, avatar.FilePath)
		}
		return nil, "", apperrors.NewStorageError("reading avatar blob", err)
	}

	return data, avatar.MediaType, nil
}

// Exists reports whether a student owns an avatar
func (s *avatarServiceImpl) Exists(ctx context.Context, studentID int64) (bool, error) {
	exists, err := s.records.ExistsByStudentID(ctx, studentID)
	if err != nil {
		return false, fmt.Errorf("error checking avatar existence: %w", err)
	}
	return exists, nil
}

// List retrieves one page of avatar records
func (s *avatarServiceImpl) List(ctx context.Context, page, size int) (*models.AvatarPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	avatars, total, err := s.records.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing avatars: %w", err)
	}

	return &models.AvatarPage{
		Items:    avatars,
		PageInfo: helpers.NewPageInfo(total, page, limit),
	}, nil
}

// FilterByMinSize retrieves all avatars whose file size exceeds minSize
func (s *avatarServiceImpl) FilterByMinSize(ctx context.Context, minSize int64) ([]*models.Avatar, error) {
	avatars, err := s.records.ListLargerThan(ctx, minSize)
	if err != nil {
		return nil, fmt.Errorf("error filtering avatars: %w", err)
	}
	return avatars, nil
}

// Count returns the total number of avatars
func (s *avatarServiceImpl) Count(ctx context.Context) (int64, error) {
	count, err := s.records.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting avatars: %w", err)
	}
	return count, nil
}

// DeleteByStudentID removes a student's avatar from both stores.
//
// The blob is deleted first. A missing file is fine (blob deletion is
// idempotent), but a real I/O failure aborts before the record is touched:
// a record pointing at a still-existing blob is recoverable, a deleted
// record with an orphan blob is not.
func (s *avatarServiceImpl) DeleteByStudentID(ctx context.Context, studentID int64) error {
	avatar, err := s.records.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAvatarNotFound) {
			return apperrors.ErrAvatarNotFound
		}
		return fmt.Errorf("error retrieving avatar: %w", err)
	}

	if err := s.blobs.Delete(ctx, avatar.FilePath); err != nil {
		return apperrors.NewStorageError("deleting avatar blob", err)
	}

	removed, err := s.records.DeleteByStudentID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("error deleting avatar record: %w", err)
	}
	if removed == 0 {
		// Raced with another delete; the record is already gone.
		return apperrors.ErrAvatarNotFound
	}

	logger.Info().Int64("studentID", studentID).Int64("avatarID", avatar.ID).Msg("Avatar deleted")
	return nil
}

// DeleteByID removes an avatar from both stores, addressed by its own ID
func (s *avatarServiceImpl) DeleteByID(ctx context.Context, avatarID int64) error {
	avatar, err := s.records.GetByID(ctx, avatarID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAvatarNotFound) {
			return apperrors.ErrAvatarNotFound
		}
		return fmt.Errorf("error retrieving avatar: %w", err)
	}

	if err := s.blobs.Delete(ctx, avatar.FilePath); err != nil {
		return apperrors.NewStorageError("deleting avatar blob", err)
	}

	if err := s.records.DeleteByID(ctx, avatarID); err != nil {
		if errors.Is(err, apperrors.ErrAvatarNotFound) {
			return apperrors.ErrAvatarNotFound
		}
		return fmt.Errorf("error deleting avatar record: %w", err)
	}

	logger.Info().Int64("avatarID", avatarID).Msg("Avatar deleted")
	return nil
}
