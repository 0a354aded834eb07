package services

import (
	"github.com/kaan/schoolhub/internal/app/repositories"
	"github.com/kaan/schoolhub/internal/pkg/blobstore"
)

// The concrete repositories must satisfy the surfaces the avatar service
// consumes.
var (
	_ AvatarRecords = (*repositories.AvatarRepository)(nil)
	_ StudentLookup = (*repositories.StudentRepository)(nil)
)

// Services bundles every service the application exposes
type Services struct {
	Avatar  AvatarService
	Student StudentService
	Faculty FacultyService
}

// NewServices wires all services from the repositories and the blob store
func NewServices(repos *repositories.Repositories, blobs blobstore.Store, avatarDir string) *Services {
	return &Services{
		Avatar:  NewAvatarService(repos.Avatar, repos.Student, blobs, avatarDir),
		Student: NewStudentService(repos.Student, repos.Faculty),
		Faculty: NewFacultyService(repos.Faculty),
	}
}
