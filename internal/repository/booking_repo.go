package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/labourmarket/internal/models"
)

// BookingRepo is the booking ledger.
type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func labourerSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "user_id", "name", "category", "image_url", "hourly_rate", "location")
}

func ownerSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

func (r *BookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// ByID loads a booking with its assigned labourer, if any.
func (r *BookingRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Labourer").
		First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// ListForUser returns the customer's bookings, newest date first.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Labourer", labourerSummary).
		Where("user_id = ?", userID).
		Order("date desc").
		Find(&out).Error
	return out, err
}

// ListForWorker returns the labourer's own queue plus the open pending
// broadcast pool for their category, newest date first.
func (r *BookingRepo) ListForWorker(ctx context.Context, labourerID uuid.UUID, category string) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User", ownerSummary).
		Where("labourer_id = ? OR (labourer_id IS NULL AND category = ? AND status = ?)",
			labourerID, category, models.BookingPending).
		Order("date desc").
		Find(&out).Error
	return out, err
}

// Claim assigns an open booking to the labourer and confirms it in a single
// conditional write. ErrConflict means another labourer got there first.
func (r *BookingRepo) Claim(ctx context.Context, bookingID, labourerID uuid.UUID, category string) (*models.Booking, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND labourer_id IS NULL AND category = ? AND status = ?", bookingID, category, models.BookingPending).
		Updates(map[string]any{
			"labourer_id": labourerID,
			"status":      models.BookingConfirmed,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("User", ownerSummary).
		First(&b, "id = ?", bookingID).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// Transition moves a booking from one status to another, failing with
// ErrConflict if the stored status is no longer from. Completing a booking
// also credits the labourer and releases a captured payment.
func (r *BookingRepo) Transition(ctx context.Context, b *models.Booking, to models.BookingStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", b.ID, b.Status).
			Updates(map[string]any{
				"status":     to,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if to != models.BookingCompleted {
			return nil
		}

		if b.LabourerID != nil {
			if err := tx.Model(&models.Labourer{}).
				Where("id = ?", *b.LabourerID).
				UpdateColumn("jobs_completed", gorm.Expr("jobs_completed + ?", 1)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Booking{}).
			Where("id = ? AND payment_status = ?", b.ID, models.PaymentPaid).
			Update("payment_status", models.PaymentReleased).Error
	})
}

// AttachOrder records the gateway order created for the booking.
func (r *BookingRepo) AttachOrder(ctx context.Context, bookingID uuid.UUID, orderID string, amount float64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]any{
			"order_id":   orderID,
			"amount":     amount,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CapturePayment flips a pending payment to paid for the booking's current
// order. ErrConflict means the order does not belong to the booking or the
// payment was already captured.
func (r *BookingRepo) CapturePayment(ctx context.Context, bookingID uuid.UUID, orderID, paymentID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND order_id = ? AND payment_status = ?", bookingID, orderID, models.PaymentPending).
		Updates(map[string]any{
			"payment_status": models.PaymentPaid,
			"payment_id":     paymentID,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
