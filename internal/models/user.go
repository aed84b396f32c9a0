package models

import "time"

// User rows are owned by the external account system; this service only
// references them as vote and bookmark authors.
type User struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	Username   string `gorm:"unique;not null" json:"username"`
	Email      string `gorm:"unique;not null" json:"email"`
	Role       string `json:"role"` // "STUDENT", "FACULTY", "ADMIN"
	Department string `json:"department"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
