package models

// MediaTypePNG is the only media type avatar uploads accept.
const MediaTypePNG = "image/png"

// Avatar represents the single binary image asset owned by one student.
// The image bytes are persisted twice on purpose: as a file at FilePath and
// as the Data column. Either copy can serve a read if the other store is
// unavailable.
type Avatar struct {
	ID        int64  `json:"id" db:"id"`
	StudentID int64  `json:"studentId" db:"student_id"`
	FilePath  string `json:"filePath" db:"file_path"`
	FileSize  int64  `json:"fileSize" db:"file_size"`
	MediaType string `json:"mediaType" db:"media_type"`
	Data      []byte `json:"-" db:"data"`
}
