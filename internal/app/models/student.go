package models

// Student defines the student model based on the 'students' table
type Student struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Age       int    `json:"age" db:"age"`
	FacultyID *int64 `json:"facultyId,omitempty" db:"faculty_id"` // nil when the student has no faculty

	// Relations (populated when needed)
	Faculty *Faculty `json:"faculty,omitempty"`
}
