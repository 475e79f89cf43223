package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/smart-student-hub/internal/models"
)

// ErrStaleActivity indicates a conditional replace lost against a concurrent writer.
var ErrStaleActivity = errors.New("activity version is stale")

// ActivityFilter narrows activity queries. Nil fields are ignored.
type ActivityFilter struct {
	ID            *uint
	StudentID     *uint
	Status        *models.ActivityStatus
	ExcludeStatus *models.ActivityStatus
	Category      *models.ActivityCategory
	WithStudent   bool
	Limit         int
}

// ActivityRepository is the durable store for activities.
type ActivityRepository interface {
	Find(ctx context.Context, filter ActivityFilter) ([]models.Activity, error)
	FindByID(ctx context.Context, id uint) (models.Activity, error)
	Insert(ctx context.Context, activity *models.Activity) error
	Replace(ctx context.Context, id uint, activity *models.Activity) error
	DeleteWhere(ctx context.Context, filter ActivityFilter) (bool, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the gorm-backed activity store.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func applyActivityFilter(query *gorm.DB, filter ActivityFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ExcludeStatus != nil {
		query = query.Where("status <> ?", *filter.ExcludeStatus)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	return query
}

func (r *activityRepository) Find(ctx context.Context, filter ActivityFilter) ([]models.Activity, error) {
	query := applyActivityFilter(r.db.WithContext(ctx).Model(&models.Activity{}), filter)
	if filter.WithStudent {
		query = query.Preload("Student")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var activities []models.Activity
	if err := query.Order("created_at DESC").Order("id DESC").Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) FindByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).Preload("Student").First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) Insert(ctx context.Context, activity *models.Activity) error {
	if activity.Version == 0 {
		activity.Version = 1
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

// Replace overwrites every mutable column of the stored activity, provided nobody
// else wrote it since it was read. The version counter is bumped on success.
func (r *activityRepository) Replace(ctx context.Context, id uint, activity *models.Activity) error {
	expected := activity.Version
	activity.ID = id
	activity.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(activity).
		Where("version = ?", expected).
		Select("*").
		Omit("ID", "StudentID", "CreatedAt", clause.Associations).
		Updates(activity)
	if result.Error != nil {
		activity.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		activity.Version = expected
		return ErrStaleActivity
	}

	return nil
}

func (r *activityRepository) DeleteWhere(ctx context.Context, filter ActivityFilter) (bool, error) {
	if filter.ID == nil && filter.StudentID == nil {
		return false, errors.New("delete requires an id or student filter")
	}

	result := applyActivityFilter(r.db.WithContext(ctx), filter).Delete(&models.Activity{})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
