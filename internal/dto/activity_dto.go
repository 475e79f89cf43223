package dto

import (
	"time"

	"github.com/noah-isme/smart-student-hub/internal/models"
)

// DateLayout is the wire format for activity start and end dates.
const DateLayout = "2006-01-02"

// ActivityCreateRequest is the draft a student submits for review.
type ActivityCreateRequest struct {
	Title          string   `json:"title" validate:"required,max=255"`
	Description    string   `json:"description" validate:"required"`
	Category       string   `json:"category" validate:"required,oneof=conference workshop certification competition internship project publication volunteering leadership club_activity community_service other"`
	StartDate      string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Venue          string   `json:"venue" validate:"omitempty,max=255"`
	Organizer      string   `json:"organizer" validate:"omitempty,max=255"`
	CertificateURL string   `json:"certificate_url" validate:"omitempty,url,max=512"`
	DocumentURL    string   `json:"document_url" validate:"omitempty,url,max=512"`
	Tags           []string `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
}

// ActivityUpdateRequest patches any subset of the mutable fields. An empty
// end_date clears it; empty URLs clear the attachment.
type ActivityUpdateRequest struct {
	Title          *string   `json:"title" validate:"omitempty,max=255"`
	Description    *string   `json:"description"`
	Category       *string   `json:"category" validate:"omitempty,oneof=conference workshop certification competition internship project publication volunteering leadership club_activity community_service other"`
	StartDate      *string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Venue          *string   `json:"venue" validate:"omitempty,max=255"`
	Organizer      *string   `json:"organizer" validate:"omitempty,max=255"`
	CertificateURL *string   `json:"certificate_url" validate:"omitempty,url,max=512"`
	DocumentURL    *string   `json:"document_url" validate:"omitempty,url,max=512"`
	Tags           *[]string `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
}

// ActivityApproveRequest carries the points awarded on approval.
type ActivityApproveRequest struct {
	Points *int `json:"points"`
}

// ActivityRejectRequest carries the mandatory rejection reason.
type ActivityRejectRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

// ActivityListFilter describes faculty query string filters.
type ActivityListFilter struct {
	Status    string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	Category  string `query:"category" validate:"omitempty,oneof=conference workshop certification competition internship project publication volunteering leadership club_activity community_service other"`
	StudentID uint   `query:"studentId"`
}

// ActivityResponse is returned to API clients when viewing activities.
type ActivityResponse struct {
	ID              uint         `json:"id"`
	StudentID       uint         `json:"student_id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Category        string       `json:"category"`
	StartDate       string       `json:"start_date"`
	EndDate         *string      `json:"end_date"`
	Venue           string       `json:"venue"`
	Organizer       string       `json:"organizer"`
	CertificateURL  string       `json:"certificate_url"`
	DocumentURL     string       `json:"document_url"`
	Points          int          `json:"points"`
	Status          string       `json:"status"`
	ApprovedBy      *uint        `json:"approved_by"`
	ApprovalDate    *time.Time   `json:"approval_date"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	Tags            []string     `json:"tags"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Student         *StudentLite `json:"student,omitempty"`
}

// StudentLite summarises the owning student without exposing the full profile.
type StudentLite struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	StudentNumber string `json:"student_number"`
	Department    string `json:"department"`
	Semester      int    `json:"semester"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	response := ActivityResponse{
		ID:              model.ID,
		StudentID:       model.StudentID,
		Title:           model.Title,
		Description:     model.Description,
		Category:        string(model.Category),
		StartDate:       model.StartDate.Format(DateLayout),
		Venue:           model.Venue,
		Organizer:       model.Organizer,
		CertificateURL:  model.CertificateURL,
		DocumentURL:     model.DocumentURL,
		Points:          model.Points,
		Status:          string(model.Status),
		ApprovedBy:      model.ApprovedBy,
		ApprovalDate:    model.ApprovalDate,
		RejectionReason: model.RejectionReason,
		Tags:            append([]string{}, model.Tags...),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.EndDate != nil {
		end := model.EndDate.Format(DateLayout)
		response.EndDate = &end
	}

	if model.Student.ID != 0 {
		response.Student = &StudentLite{
			ID:            model.Student.ID,
			Name:          model.Student.Name,
			Email:         model.Student.Email,
			StudentNumber: model.Student.StudentNumber,
			Department:    model.Student.Department,
			Semester:      model.Student.Semester,
		}
	}

	return response
}

// NewActivityResponseSlice converts activity models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}

	return responses
}
