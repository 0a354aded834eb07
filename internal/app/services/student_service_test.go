package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
)

// Validation failures return before any repository call, so nil repos are
// enough to exercise them.
func newValidationOnlyStudentService() StudentService {
	return NewStudentService(nil, nil)
}

func TestStudentCreateValidation(t *testing.T) {
	svc := newValidationOnlyStudentService()
	ctx := context.Background()

	tests := []struct {
		name    string
		student *models.Student
	}{
		{"nil student", nil},
		{"empty name", &models.Student{Name: "   ", Age: 20}},
		{"zero age", &models.Student{Name: "Harry", Age: 0}},
		{"negative age", &models.Student{Name: "Harry", Age: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.student)
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
}

func TestStudentGetByIDValidation(t *testing.T) {
	svc := newValidationOnlyStudentService()

	_, err := svc.GetByID(context.Background(), 0)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.GetByID(context.Background(), -1)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestStudentUpdateRequiresID(t *testing.T) {
	svc := newValidationOnlyStudentService()

	err := svc.Update(context.Background(), &models.Student{Name: "Harry", Age: 17})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestStudentDeleteValidation(t *testing.T) {
	svc := newValidationOnlyStudentService()

	err := svc.Delete(context.Background(), 0)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestStudentFindByAgeBetweenValidation(t *testing.T) {
	svc := newValidationOnlyStudentService()

	_, err := svc.FindByAgeBetween(context.Background(), -1, 10)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.FindByAgeBetween(context.Background(), 20, 10)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
