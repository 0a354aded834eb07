package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaan/schoolhub/internal/app/models"
	"github.com/kaan/schoolhub/internal/pkg/apperrors"
)

func TestFacultyCreateValidation(t *testing.T) {
	svc := NewFacultyService(nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Create(ctx, &models.Faculty{Name: "  ", Color: "red"})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestFacultyGetByIDValidation(t *testing.T) {
	svc := NewFacultyService(nil)

	_, err := svc.GetByID(context.Background(), 0)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestFacultySearchRequiresQuery(t *testing.T) {
	svc := NewFacultyService(nil)

	_, err := svc.SearchByNameOrColor(context.Background(), "   ")
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestFacultyUpdateRequiresID(t *testing.T) {
	svc := NewFacultyService(nil)

	err := svc.Update(context.Background(), &models.Faculty{Name: "Gryffindor"})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestFacultyDeleteValidation(t *testing.T) {
	svc := NewFacultyService(nil)

	err := svc.Delete(context.Background(), -5)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
