package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
)

// Avatar errors
var (
	// ErrUnsupportedMediaType is returned when an upload is not image/png.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrAvatarAlreadyExists is returned when a student already has an avatar.
	// It is produced both by the service pre-check and by the unique
	// constraint on avatars.student_id, which is the final arbiter when two
	// uploads race.
	ErrAvatarAlreadyExists = errors.New("avatar already exists for this student")
	// ErrAvatarNotFound is returned when no avatar record exists for the
	// given student or avatar id.
	ErrAvatarNotFound = errors.New("avatar not found")
	// ErrBlobMissing is returned when the avatar record exists but the blob
	// file does not.
	ErrBlobMissing = errors.New("avatar blob missing from storage")
	// ErrStorage is returned for blob I/O failures that are not a missing
	// file, and for record-store failures other than a unique violation.
	ErrStorage = errors.New("storage failure")
)

// Student errors
var (
	ErrStudentNotFound = errors.New("student not found")
)

// Faculty errors
var (
	ErrFacultyNotFound      = errors.New("faculty not found")
	ErrFacultyAlreadyExists = errors.New("faculty with this name already exists")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewStorageError wraps an I/O failure so callers can match ErrStorage with
// errors.Is while the cause stays readable in the message.
func NewStorageError(op string, err error) error {
	return &CustomError{
		Err:     ErrStorage,
		Message: op + ": " + err.Error(),
	}
}
