package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/app/repositories"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
	"github.com/kaan/schoolhub/internal/pkg/helpers"
)

// StudentService defines the interface for student-related operations
type StudentService interface {
	Create(ctx context.Context, student *models.Student) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, size int) (*models.StudentPage, error)
	FindByAgeBetween(ctx context.Context, minAge, maxAge int) ([]*models.Student, error)
	FacultyOfStudent(ctx context.Context, studentID int64) (*models.Faculty, error)
	StudentsOfFaculty(ctx context.Context, facultyID int64) ([]*models.Student, error)
}

// studentServiceImpl implements the StudentService interface
type studentServiceImpl struct {
	studentRepo *repositories.StudentRepository
	facultyRepo *repositories.FacultyRepository
}

// NewStudentService creates a new student service instance
func NewStudentService(studentRepo *repositories.StudentRepository, facultyRepo *repositories.FacultyRepository) StudentService {
	return &studentServiceImpl{
		studentRepo: studentRepo,
		facultyRepo: facultyRepo,
	}
}

// validateStudent validates student data before database operations
func (s *studentServiceImpl) validateStudent(student *models.Student) error {
	if student == nil {
		return fmt.Errorf("%w: student is nil", apperrors.ErrValidationFailed)
	}

	if strings.TrimSpace(student.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}

	if student.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", apperrors.ErrValidationFailed)
	}

	return nil
}

// resolveFaculty verifies the referenced faculty exists when one is set
func (s *studentServiceImpl) resolveFaculty(ctx context.Context, student *models.Student) error {
	if student.FacultyID == nil {
		return nil
	}

	if _, err := s.facultyRepo.GetByID(ctx, *student.FacultyID); err != nil {
		if errors.Is(err, apperrors.ErrFacultyNotFound) {
			return apperrors.ErrFacultyNotFound
		}
		return fmt.Errorf("error resolving faculty: %w", err)
	}
	return nil
}

// Create creates a new student
func (s *studentServiceImpl) Create(ctx context.Context, student *models.Student) (int64, error) {
	if err := s.validateStudent(student); err != nil {
		return 0, err
	}

	if err := s.resolveFaculty(ctx, student); err != nil {
		return 0, err
	}

	id, err := s.studentRepo.Create(ctx, student)
	if err != nil {
		return 0, fmt.Errorf("error creating student: %w", err)
	}
	return id, nil
}

// GetByID retrieves a student by ID
func (s *studentServiceImpl) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid student ID", apperrors.ErrValidationFailed)
	}

	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return student, nil
}

// Update updates an existing student
func (s *studentServiceImpl) Update(ctx context.Context, student *models.Student) error {
	if err := s.validateStudent(student); err != nil {
		return err
	}

	if student.ID <= 0 {
		return fmt.Errorf("%w: invalid student ID", apperrors.ErrValidationFailed)
	}

	if err := s.resolveFaculty(ctx, student); err != nil {
		return err
	}

	err := s.studentRepo.Update(ctx, student)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return apperrors.ErrStudentNotFound
		}
		return fmt.Errorf("error updating student: %w", err)
	}
	return nil
}

// Delete deletes a student by ID
func (s *studentServiceImpl) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid student ID", apperrors.ErrValidationFailed)
	}

	err := s.studentRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return apperrors.ErrStudentNotFound
		}
		return fmt.Errorf("error deleting student: %w", err)
	}
	return nil
}

// List retrieves one page of students
func (s *studentServiceImpl) List(ctx context.Context, page, size int) (*models.StudentPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	students, total, err := s.studentRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}

	return &models.StudentPage{
		Items:    students,
		PageInfo: helpers.NewPageInfo(total, page, limit),
	}, nil
}

// FindByAgeBetween retrieves students whose age falls in [minAge, maxAge]
func (s *studentServiceImpl) FindByAgeBetween(ctx context.Context, minAge, maxAge int) ([]*models.Student, error) {
	if minAge < 0 || maxAge < minAge {
		return nil, fmt.Errorf("%w: invalid age range", apperrors.ErrValidationFailed)
	}

	students, err := s.studentRepo.FindByAgeBetween(ctx, minAge, maxAge)
	if err != nil {
		return nil, fmt.Errorf("error retrieving students by age: %w", err)
	}
	return students, nil
}

// FacultyOfStudent retrieves the faculty a student belongs to
func (s *studentServiceImpl) FacultyOfStudent(ctx context.Context, studentID int64) (*models.Faculty, error) {
	student, err := s.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if student.FacultyID == nil {
		return nil, apperrors.ErrFacultyNotFound
	}

	faculty, err := s.facultyRepo.GetByID(ctx, *student.FacultyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrFacultyNotFound) {
			return nil, apperrors.ErrFacultyNotFound
		}
		return nil, fmt.Errorf("error retrieving faculty: %w", err)
	}
	return faculty, nil
}

// StudentsOfFaculty retrieves all students of a faculty
func (s *studentServiceImpl) StudentsOfFaculty(ctx context.Context, facultyID int64) ([]*models.Student, error) {
	if _, err := s.facultyRepo.GetByID(ctx, facultyID); err != nil {
		if errors.Is(err, apperrors.ErrFacultyNotFound) {
			return nil, apperrors.ErrFacultyNotFound
		}
		return nil, fmt.Errorf("error resolving faculty: %w", err)
	}

	students, err := s.studentRepo.FindByFacultyID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving students of faculty: %w", err)
	}
	return students, nil
}
