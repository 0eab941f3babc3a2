package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/labourmarket/internal/models"
)

// LabourerRepo is the labourer registry.
type LabourerRepo struct{ db *gorm.DB }

func NewLabourerRepo(db *gorm.DB) *LabourerRepo {
	return &LabourerRepo{db: db}
}

func (r *LabourerRepo) Create(ctx context.Context, l *models.Labourer) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LabourerRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Labourer, error) {
	var l models.Labourer
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

// ByUserID returns the profile owned by the given account.
func (r *LabourerRepo) ByUserID(ctx context.Context, userID uuid.UUID) (*models.Labourer, error) {
	var l models.Labourer
	if err := r.db.WithContext(ctx).First(&l, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

// List pages through the directory, optionally filtered by category.
func (r *LabourerRepo) List(ctx context.Context, category string, limit, offset int) ([]models.Labourer, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Labourer{})
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Labourer
	if err := q.Order("rating desc, created_at desc").
		Limit(limit).Offset(offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ProfileFields carries a worker's editable profile values. Zero values are
// left untouched on update.
type ProfileFields struct {
	Name            string
	Category        string
	HourlyRate      float64
	Description     string
	Location        string
	Skills          []string
	ExperienceYears int
}

func (p ProfileFields) updates() map[string]any {
	updates := map[string]any{}
	if p.Name != "" {
		updates["name"] = p.Name
	}
	if p.Category != "" {
		updates["category"] = p.Category
	}
	if p.HourlyRate != 0 {
		updates["hourly_rate"] = p.HourlyRate
	}
	if p.Description != "" {
		updates["description"] = p.Description
	}
	if p.Location != "" {
		updates["location"] = p.Location
	}
	if p.Skills != nil {
		updates["skills"] = pq.StringArray(p.Skills)
	}
	if p.ExperienceYears != 0 {
		updates["experience_years"] = p.ExperienceYears
	}
	return updates
}

// SaveProfile updates the worker's profile in place, creating it if the
// account has none yet.
func (r *LabourerRepo) SaveProfile(ctx context.Context, userID uuid.UUID, p ProfileFields) (*models.Labourer, error) {
	var out models.Labourer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&out, "user_id = ?", userID).Error
		if err == nil {
			if err := tx.Model(&out).Updates(p.updates()).Error; err != nil {
				return err
			}
			return tx.First(&out, "id = ?", out.ID).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		out = models.Labourer{
			UserID:          &userID,
			Name:            p.Name,
			Category:        p.Category,
			HourlyRate:      p.HourlyRate,
			Description:     p.Description,
			Location:        p.Location,
			Skills:          pq.StringArray(p.Skills),
			ExperienceYears: p.ExperienceYears,
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetImage mirrors the account's profile picture onto the worker profile.
func (r *LabourerRepo) SetImage(ctx context.Context, userID uuid.UUID, imageURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.Labourer{}).
		Where("user_id = ?", userID).
		Update("image_url", imageURL).Error
}

// PushTokensByCategory returns the push tokens of every account owning a
// labourer profile in the category.
func (r *LabourerRepo) PushTokensByCategory(ctx context.Context, category string) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&models.Labourer{}).
		Joins("JOIN users ON users.id = labourers.user_id").
		Where("labourers.category = ? AND users.fcm_token <> ''", category).
		Distinct().
		Pluck("users.fcm_token", &tokens).Error
	return tokens, err
}

// ReseedDirectory replaces the account-less directory entries with entries.
// Entries referenced by a booking are kept.
func (r *LabourerRepo) ReseedDirectory(ctx context.Context, entries []models.Labourer) (removed int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booked := tx.Model(&models.Booking{}).Select("labourer_id").Where("labourer_id IS NOT NULL")
		res := tx.Where("user_id IS NULL AND id NOT IN (?)", booked).Delete(&models.Labourer{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 100).Error
	})
	return removed, err
}
