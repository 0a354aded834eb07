package models

// Faculty represents a faculty students belong to
type Faculty struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}
