package models

import "time"

// Course groups generated assignments under an academic offering.
type Course struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	CourseCode   string    `gorm:"size:64;not null" json:"course_code"`
	AcademicYear string    `gorm:"size:16;not null" json:"academic_year"`
	Semester     int       `gorm:"not null" json:"semester"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
