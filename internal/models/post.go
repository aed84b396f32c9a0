package models

import "time"

type Post struct {
	ID          int      `gorm:"primaryKey" json:"id"`
	Title       string   `gorm:"not null" json:"title"`
	Body        string   `json:"body"`
	CourseCode  string   `gorm:"index" json:"course_code"`
	Topics      []string `gorm:"serializer:json" json:"topics"`
	Materials   []string `gorm:"serializer:json" json:"materials"`
	HasLink     bool     `json:"has_link"`
	HasMaterial bool     `json:"has_material"`
	UserID      int      `json:"user_id"`
	User        User     `gorm:"foreignKey:UserID" json:"user"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
