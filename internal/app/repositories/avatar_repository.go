package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
	"github.com/kaan/schoolhub/internal/pkg/dberrors"
	"github.com/kaan/schoolhub/internal/pkg/logger"
)

// AvatarStudentConstraint is the unique constraint on avatars.student_id.
// It is what actually enforces the one-avatar-per-student rule when two
// inserts race past the application-level existence check.
const AvatarStudentConstraint = "uq_avatars_student_id"

// AvatarRepository handles database operations for avatar records
type AvatarRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAvatarRepository creates a new AvatarRepository
func NewAvatarRepository(db *pgxpool.Pool) *AvatarRepository {
	return &AvatarRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Save inserts the record when it has no ID yet and updates it otherwise.
// An insert that hits the student_id unique constraint returns
// apperrors.ErrAvatarAlreadyExists.
func (r *AvatarRepository) Save(ctx context.Context, avatar *models.Avatar) (*models.Avatar, error) {
	if avatar.ID == 0 {
		return r.insert(ctx, avatar)
	}
	return r.update(ctx, avatar)
}

func (r *AvatarRepository) insert(ctx context.Context, avatar *models.Avatar) (*models.Avatar, error) {
	query := `
		INSERT INTO avatars (student_id, file_path, file_size, media_type, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		avatar.StudentID,
		avatar.FilePath,
		avatar.FileSize,
		avatar.MediaType,
		avatar.Data,
	).Scan(&avatar.ID)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, AvatarStudentConstraint) {
			return nil, apperrors.ErrAvatarAlreadyExists
		}
		logger.Error().Err(err).Int64("studentID", avatar.StudentID).Msg("Error inserting avatar record")
		return nil, fmt.Errorf("error creating avatar: %w", err)
	}

	return avatar, nil
}

func (r *AvatarRepository) update(ctx context.Context, avatar *models.Avatar) (*models.Avatar, error) {
	query := `
		UPDATE avatars
		SET student_id = $1, file_path = $2, file_size = $3, media_type = $4, data = $5
		WHERE id = $6
	`

	result, err := r.db.Exec(ctx, query,
		avatar.StudentID,
		avatar.FilePath,
		avatar.FileSize,
		avatar.MediaType,
		avatar.Data,
		avatar.ID,
	)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, AvatarStudentConstraint) {
			return nil, apperrors.ErrAvatarAlreadyExists
		}
		logger.Error().Err(err).Int64("avatarID", avatar.ID).Msg("Error updating avatar record")
		return nil, fmt.Errorf("error updating avatar: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrAvatarNotFound
	}

	return avatar, nil
}

// GetByStudentID retrieves the avatar record owned by a student
func (r *AvatarRepository) GetByStudentID(ctx context.Context, studentID int64) (*models.Avatar, error) {
	sql, args, err := r.sb.Select("id", "student_id", "file_path", "file_size", "media_type", "data").
		From("avatars").
		Where(squirrel.Eq{"student_id": studentID}).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get avatar query: %w", err)
	}

	return r.scanOne(ctx, sql, args)
}

// GetByID retrieves an avatar record by its own ID
func (r *AvatarRepository) GetByID(ctx context.Context, id int64) (*models.Avatar, error) {
	sql, args, err := r.sb.Select("id", "student_id", "file_path", "file_size", "media_type", "data").
		From("avatars").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get avatar query: %w", err)
	}

	return r.scanOne(ctx, sql, args)
}

func (r *AvatarRepository) scanOne(ctx context.Context, sql string, args []interface{}) (*models.Avatar, error) {
	avatar := &models.Avatar{}
	err := r.db.QueryRow(ctx, sql, args...).Scan(
		&avatar.ID,
		&avatar.StudentID,
		&avatar.FilePath,
		&avatar.FileSize,
		&avatar.MediaType,
		&avatar.Data,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAvatarNotFound
		}
		logger.Error().Err(err).Msg("Error scanning avatar row")
		return nil, fmt.Errorf("error getting avatar: %w", err)
	}

	return avatar, nil
}

// ExistsByStudentID checks whether a student already owns an avatar
func (r *AvatarRepository) ExistsByStudentID(ctx context.Context, studentID int64) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("avatars").
		Where(squirrel.Eq{"student_id": studentID}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("failed to build avatar existence query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) { // ErrNoRows is ok here, means false
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error checking avatar existence")
		return false, fmt.Errorf("error checking avatar existence: %w", err)
	}

	return exists, nil
}

// DeleteByStudentID deletes the avatar record owned by a student and
// returns how many rows were removed (0 or 1).
func (r *AvatarRepository) DeleteByStudentID(ctx context.Context, studentID int64) (int64, error) {
	sql, args, err := r.sb.Delete("avatars").
		Where(squirrel.Eq{"student_id": studentID}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("failed to build delete avatar query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error deleting avatar record")
		return 0, fmt.Errorf("error deleting avatar: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

// DeleteByID deletes an avatar record by its own ID
func (r *AvatarRepository) DeleteByID(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("avatars").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build delete avatar query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("avatarID", id).Msg("Error deleting avatar record")
		return fmt.Errorf("error deleting avatar: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAvatarNotFound
	}

	return nil
}

// CountByStudentID counts avatar records owned by a student (0 or 1 given
// the unique constraint).
func (r *AvatarRepository) CountByStudentID(ctx context.Context, studentID int64) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("avatars").
		Where(squirrel.Eq{"student_id": studentID}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("failed to build count avatars query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error counting avatars")
		return 0, fmt.Errorf("error counting avatars: %w", err)
	}

	return count, nil
}

// Count returns the total number of avatar records
func (r *AvatarRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM avatars`).Scan(&count); err != nil {
		logger.Error().Err(err).Msg("Error counting avatars")
		return 0, fmt.Errorf("error counting avatars: %w", err)
	}

	return count, nil
}

// List retrieves one page of avatar records ordered by ID, plus the total count
func (r *AvatarRepository) List(ctx context.Context, offset uint64, limit int) ([]*models.Avatar, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.sb.Select("id", "student_id", "file_path", "file_size", "media_type", "data").
		From("avatars").
		OrderBy("id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list avatars query: %w", err)
	}

	avatars, err := r.queryMany(ctx, sql, args)
	if err != nil {
		return nil, 0, err
	}

	return avatars, total, nil
}

// ListLargerThan retrieves all avatar records whose file size exceeds minSize
func (r *AvatarRepository) ListLargerThan(ctx context.Context, minSize int64) ([]*models.Avatar, error) {
	sql, args, err := r.sb.Select("id", "student_id", "file_path", "file_size", "media_type", "data").
		From("avatars").
		Where(squirrel.Gt{"file_size": minSize}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build filter avatars query: %w", err)
	}

	return r.queryMany(ctx, sql, args)
}

func (r *AvatarRepository) queryMany(ctx context.Context, sql string, args []interface{}) ([]*models.Avatar, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing avatar list query")
		return nil, fmt.Errorf("error querying avatars: %w", err)
	}
	defer rows.Close()

	avatars := []*models.Avatar{}
	for rows.Next() {
		avatar := &models.Avatar{}
		if err := rows.Scan(
			&avatar.ID,
			&avatar.StudentID,
			&avatar.FilePath,
			&avatar.FileSize,
			&avatar.MediaType,
			&avatar.Data,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning avatar row during list")
			return nil, fmt.Errorf("error scanning avatar row: %w", err)
		}
		avatars = append(avatars, avatar)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating avatar rows")
		return nil, fmt.Errorf("error iterating avatar rows: %w", err)
	}

	return avatars, nil
}
