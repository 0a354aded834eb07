package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles every repository built on the shared pool
type Repositories struct {
	Avatar  *AvatarRepository
	Student *StudentRepository
	Faculty *FacultyRepository
}

// NewRepositories creates all repositories from a single connection pool
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Avatar:  NewAvatarRepository(db),
		Student: NewStudentRepository(db),
		Faculty: NewFacultyRepository(db),
	}
}
