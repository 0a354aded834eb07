package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/app/repositories"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
)

// FacultyService defines the interface for faculty-related operations
type FacultyService interface {
	Create(ctx context.Context, faculty *models.Faculty) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Faculty, error)
	GetAll(ctx context.Context) ([]*models.Faculty, error)
	SearchByNameOrColor(ctx context.Context, query string) ([]*models.Faculty, error)
	Update(ctx context.Context, faculty *models.Faculty) error
	Delete(ctx context.Context, id int64) error
}

// facultyServiceImpl implements the FacultyService interface
type facultyServiceImpl struct {
	facultyRepo *repositories.FacultyRepository
}

// NewFacultyService creates a new faculty service instance
func NewFacultyService(facultyRepo *repositories.FacultyRepository) FacultyService {
	return &facultyServiceImpl{
		facultyRepo: facultyRepo,
	}
}

// validateFaculty validates faculty data before database operations
func (s *facultyServiceImpl) validateFaculty(faculty *models.Faculty) error {
	if faculty == nil {
		return fmt.Errorf("%w: faculty is nil", apperrors.ErrValidationFailed)
	}

	if strings.TrimSpace(faculty.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}

	return nil
}

// Create creates a new faculty
func (s *facultyServiceImpl) Create(ctx context.Context, faculty *models.Faculty) (int64, error) {
	if err := s.validateFaculty(faculty); err != nil {
		return 0, err
	}

	id, err := s.facultyRepo.Create(ctx, faculty)
	if err != nil {
		if errors.Is(err, apperrors.ErrFacultyAlreadyExists) {
			return 0, apperrors.ErrFacultyAlreadyExists
		}
		return 0, fmt.Errorf("error creating faculty: %w", err)
	}
	return id, nil
}

// GetByID retrieves a faculty by ID
func (s *facultyServiceImpl) GetByID(ctx context.Context, id int64) (*models.Faculty, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid faculty ID", apperrors.ErrValidationFailed)
	}

	faculty, err := s.facultyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrFacultyNotFound) {
			return nil, apperrors.ErrFacultyNotFound
		}
		return nil, fmt.Errorf("error retrieving faculty: %w", err)
	}
	return faculty, nil
}

// GetAll retrieves all faculties
func (s *facultyServiceImpl) GetAll(ctx context.Context) ([]*models.Faculty, error) {
	faculties, err := s.facultyRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving faculties: %w", err)
	}
	return faculties, nil
}

// SearchByNameOrColor retrieves faculties matching the query by name or color
func (s *facultyServiceImpl) SearchByNameOrColor(ctx context.Context, query string) ([]*models.Faculty, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", apperrors.ErrValidationFailed)
	}

	faculties, err := s.facultyRepo.SearchByNameOrColor(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error searching faculties: %w", err)
	}
	return faculties, nil
}

// Update updates an existing faculty
func (s *facultyServiceImpl) Update(ctx context.Context, faculty *models.Faculty) error {
	if err := s.validateFaculty(faculty); err != nil {
		return err
	}

	if faculty.ID <= 0 {
		return fmt.Errorf("%w: invalid faculty ID", apperrors.ErrValidationFailed)
	}

	err := s.facultyRepo.Update(ctx, faculty)
	if err != nil {
		if errors.Is(err, apperrors.ErrFacultyNotFound) {
			return apperrors.ErrFacultyNotFound
		}
		if errors.Is(err, apperrors.ErrFacultyAlreadyExists) {
			return apperrors.ErrFacultyAlreadyExists
		}
		return fmt.Errorf("error updating faculty: %w", err)
	}
	return nil
}

// Delete deletes a faculty by ID
func (s *facultyServiceImpl) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid faculty ID", apperrors.ErrValidationFailed)
	}

	err := s.facultyRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrFacultyNotFound) {
			return apperrors.ErrFacultyNotFound
		}
		return fmt.Errorf("error deleting faculty: %w", err)
	}
	return nil
}
