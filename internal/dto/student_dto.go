package dto

import (
	"github.com/noah-isme/smart-student-hub/internal/aggregation"
	"github.com/noah-isme/smart-student-hub/internal/models"
)

// ProfileResponse exposes a student's profile without credentials.
type ProfileResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	StudentNumber  string `json:"student_number"`
	Department     string `json:"department"`
	Semester       int    `json:"semester"`
	Batch          string `json:"batch"`
	Phone          string `json:"phone"`
	ProfilePicture string `json:"profile_picture"`
}

// ProfileUpdateRequest patches the self-service profile fields.
type ProfileUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	Semester       *int    `json:"semester" validate:"omitempty,gte=1,lte=16"`
	Batch          *string `json:"batch" validate:"omitempty,max=32"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url,max=512"`
}

// NewProfileResponse converts a Student model into a DTO.
func NewProfileResponse(model models.Student) ProfileResponse {
	return ProfileResponse{
		ID:             model.ID,
		Name:           model.Name,
		Email:          model.Email,
		Role:           model.Role,
		StudentNumber:  model.StudentNumber,
		Department:     model.Department,
		Semester:       model.Semester,
		Batch:          model.Batch,
		Phone:          model.Phone,
		ProfilePicture: model.ProfilePicture,
	}
}

// NewProfileResponseSlice converts student models into DTOs.
func NewProfileResponseSlice(students []models.Student) []ProfileResponse {
	responses := make([]ProfileResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewProfileResponse(student))
	}
	return responses
}

// DashboardStatistics is the headline block on the student dashboard.
type DashboardStatistics struct {
	TotalActivities int `json:"total_activities"`
	Approved        int `json:"approved"`
	Pending         int `json:"pending"`
	Rejected        int `json:"rejected"`
	TotalPoints     int `json:"total_points"`
}

// StudentDashboardResponse aggregates the student's own activity state.
type StudentDashboardResponse struct {
	User             ProfileResponse     `json:"user"`
	Statistics       DashboardStatistics `json:"statistics"`
	RecentActivities []ActivityResponse  `json:"recent_activities"`
}

// PortfolioResponse is the approved-only showcase of a student.
type PortfolioResponse struct {
	Student    ProfileResponse            `json:"student"`
	Activities []ActivityResponse         `json:"activities"`
	Statistics aggregation.PortfolioStats `json:"statistics"`
}

// NewDashboardStatistics narrows aggregate stats to the dashboard headline.
func NewDashboardStatistics(stats aggregation.Stats) DashboardStatistics {
	return DashboardStatistics{
		TotalActivities: stats.Total,
		Approved:        stats.Approved,
		Pending:         stats.Pending,
		Rejected:        stats.Rejected,
		TotalPoints:     stats.TotalPoints,
	}
}
