package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/labourmarket/internal/models"
)

// UserRepo is the identity store.
type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create stores a new account. Worker accounts get their placeholder labourer
// profile in the same transaction.
func (r *UserRepo) Create(ctx context.Context, u *models.User) (*models.Labourer, error) {
	u.Email = normalizeEmail(u.Email)

	var profile *models.Labourer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}

		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if u.Role != models.RoleWorker {
			return nil
		}

		profile = &models.Labourer{
			UserID:   &u.ID,
			Name:     u.Name,
			Category: models.PlaceholderCategory,
			Location: models.PlaceholderLocation,
			ImageURL: u.ProfilePicture,
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return profile, nil
}

func (r *UserRepo) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Update applies a partial column update to the account.
func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPushToken replaces the account's push token; an empty token clears it.
func (r *UserRepo) SetPushToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.Update(ctx, id, map[string]any{"fcm_token": strings.TrimSpace(token)})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
