package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
	"github.com/kaan/schoolhub/internal/pkg/helpers"
	"github.com/kaan/schoolhub/internal/pkg/logger"
)

// StudentRepository handles student database operations
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create creates a new student
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (int64, error) {
	query := `
		INSERT INTO students (name, age, faculty_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		student.Name,
		student.Age,
		helpers.GetNullInt64(student.FacultyID),
	).Scan(&id)

	if err != nil {
		logger.Error().Err(err).Str("name", student.Name).Msg("Error creating student")
		return 0, fmt.Errorf("error creating student: %w", err)
	}

	return id, nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sqlStr, args, err := r.sb.Select("id", "name", "age", "faculty_id").
		From("students").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student := &models.Student{}
	var facultyID sql.NullInt64
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&student.ID, &student.Name, &student.Age, &facultyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("studentID", id).Msg("Error scanning student row")
		return nil, fmt.Errorf("error getting student by ID: %w", err)
	}
	student.FacultyID = helpers.GetInt64Ptr(facultyID)

	return student, nil
}

// Exists checks whether a student with the given ID exists
func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	sqlStr, args, err := r.sb.Select("1").
		From("students").
		Where(squirrel.Eq{"id": id}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("failed to build student existence query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) { // ErrNoRows is ok here, means false
		logger.Error().Err(err).Int64("studentID", id).Msg("Error checking student existence")
		return false, fmt.Errorf("error checking student existence: %w", err)
	}

	return exists, nil
}

// Update updates an existing student
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	sqlStr, args, err := r.sb.Update("students").
		SetMap(map[string]interface{}{
			"name":       student.Name,
			"age":        student.Age,
			"faculty_id": helpers.GetNullInt64(student.FacultyID),
		}).
		Where(squirrel.Eq{"id": student.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", student.ID).Msg("Error executing update student query")
		return fmt.Errorf("error updating student: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	return nil
}

// Delete deletes a student by ID
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := r.sb.Delete("students").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", id).Msg("Error executing delete student query")
		return fmt.Errorf("error deleting student: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	return nil
}

// List retrieves one page of students ordered by ID, plus the total count
func (r *StudentRepository) List(ctx context.Context, offset uint64, limit int) ([]*models.Student, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting students")
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	sqlStr, args, err := r.sb.Select("id", "name", "age", "faculty_id").
		From("students").
		OrderBy("id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list students query: %w", err)
	}

	students, err := r.queryMany(ctx, sqlStr, args)
	if err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

// FindByAgeBetween retrieves all students whose age is within [minAge, maxAge]
func (r *StudentRepository) FindByAgeBetween(ctx context.Context, minAge, maxAge int) ([]*models.Student, error) {
	sqlStr, args, err := r.sb.Select("id", "name", "age", "faculty_id").
		From("students").
		Where(squirrel.GtOrEq{"age": minAge}).
		Where(squirrel.LtOrEq{"age": maxAge}).
		OrderBy("age ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build students by age query: %w", err)
	}

	return r.queryMany(ctx, sqlStr, args)
}

// FindByFacultyID retrieves all students belonging to a faculty
func (r *StudentRepository) FindByFacultyID(ctx context.Context, facultyID int64) ([]*models.Student, error) {
	sqlStr, args, err := r.sb.Select("id", "name", "age", "faculty_id").
		From("students").
		Where(squirrel.Eq{"faculty_id": facultyID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build students by faculty query: %w", err)
	}

	return r.queryMany(ctx, sqlStr, args)
}

func (r *StudentRepository) queryMany(ctx context.Context, sqlStr string, args []interface{}) ([]*models.Student, error) {
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing student list query")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		student := &models.Student{}
		var facultyID sql.NullInt64
		if err := rows.Scan(&student.ID, &student.Name, &student.Age, &facultyID); err != nil {
			logger.Error().Err(err).Msg("Error scanning student row during list")
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		student.FacultyID = helpers.GetInt64Ptr(facultyID)
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating student rows")
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}
