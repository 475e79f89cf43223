package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityCategory classifies the kind of achievement a student claims.
type ActivityCategory string

const (
	CategoryConference       ActivityCategory = "conference"
	CategoryWorkshop         ActivityCategory = "workshop"
	CategoryCertification    ActivityCategory = "certification"
	CategoryCompetition      ActivityCategory = "competition"
	CategoryInternship       ActivityCategory = "internship"
	CategoryProject          ActivityCategory = "project"
	CategoryPublication      ActivityCategory = "publication"
	CategoryVolunteering     ActivityCategory = "volunteering"
	CategoryLeadership       ActivityCategory = "leadership"
	CategoryClubActivity     ActivityCategory = "club_activity"
	CategoryCommunityService ActivityCategory = "community_service"
	CategoryOther            ActivityCategory = "other"
)

// ActivityCategories lists every accepted category in display order.
var ActivityCategories = []ActivityCategory{
	CategoryConference,
	CategoryWorkshop,
	CategoryCertification,
	CategoryCompetition,
	CategoryInternship,
	CategoryProject,
	CategoryPublication,
	CategoryVolunteering,
	CategoryLeadership,
	CategoryClubActivity,
	CategoryCommunityService,
	CategoryOther,
}

// Valid reports whether the category belongs to the fixed enumeration.
func (c ActivityCategory) Valid() bool {
	for _, candidate := range ActivityCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ActivityStatus tracks where an activity sits in the review workflow.
type ActivityStatus string

const (
	// ActivityStatusPending marks activities awaiting faculty review.
	ActivityStatusPending ActivityStatus = "pending"
	// ActivityStatusApproved marks activities accepted by faculty; only these earn points.
	ActivityStatusApproved ActivityStatus = "approved"
	// ActivityStatusRejected marks activities turned down with a reason.
	ActivityStatusRejected ActivityStatus = "rejected"
)

// Activity is a single achievement claimed by a student.
type Activity struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	StudentID       uint                        `gorm:"not null;index" json:"student_id"`
	Title           string                      `gorm:"size:255;not null" json:"title"`
	Description     string                      `gorm:"type:text;not null" json:"description"`
	Category        ActivityCategory            `gorm:"size:32;not null;index" json:"category"`
	StartDate       time.Time                   `gorm:"not null" json:"start_date"`
	EndDate         *time.Time                  `json:"end_date"`
	Venue           string                      `gorm:"size:255" json:"venue"`
	Organizer       string                      `gorm:"size:255" json:"organizer"`
	CertificateURL  string                      `gorm:"size:512" json:"certificate_url"`
	DocumentURL     string                      `gorm:"size:512" json:"document_url"`
	Points          int                         `gorm:"not null;default:0" json:"points"`
	Status          ActivityStatus              `gorm:"size:16;not null;index" json:"status"`
	ApprovedBy      *uint                       `json:"approved_by"`
	ApprovalDate    *time.Time                  `json:"approval_date"`
	RejectionReason string                      `gorm:"type:text" json:"rejection_reason"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	Version         int                         `gorm:"not null;default:1" json:"-"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime:false;index" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime:false" json:"updated_at"`
	Student         Student                     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsApproved reports whether the activity has been accepted and therefore earns points.
func (a Activity) IsApproved() bool {
	return a.Status == ActivityStatusApproved
}

// EarnedPoints returns the points that count towards aggregates.
func (a Activity) EarnedPoints() int {
	if !a.IsApproved() || a.Points < 0 {
		return 0
	}
	return a.Points
}

// ClearReview drops approval metadata and the rejection reason.
func (a *Activity) ClearReview() {
	a.ApprovedBy = nil
	a.ApprovalDate = nil
	a.RejectionReason = ""
}
