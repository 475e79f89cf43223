package models

import "time"

// Roles understood by the access boundary.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// Student is the profile record owning activities. Faculty and admin accounts share the table.
type Student struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role           string    `gorm:"size:32;not null;default:student;index" json:"role"`
	StudentNumber  string    `gorm:"size:64" json:"student_number"`
	Department     string    `gorm:"size:128;index" json:"department"`
	Semester       int       `json:"semester"`
	Batch          string    `gorm:"size:32" json:"batch"`
	Phone          string    `gorm:"size:32" json:"phone"`
	ProfilePicture string    `gorm:"size:512" json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
