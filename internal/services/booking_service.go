package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/labourmarket/internal/models"
	"github.com/example/labourmarket/internal/notify"
	"github.com/example/labourmarket/internal/repository"
)

// BookingStore is the booking ledger as seen by the assignment engine.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	ByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	ListForWorker(ctx context.Context, labourerID uuid.UUID, category string) ([]models.Booking, error)
	Claim(ctx context.Context, bookingID, labourerID uuid.UUID, category string) (*models.Booking, error)
	Transition(ctx context.Context, b *models.Booking, to models.BookingStatus) error
}

// LabourerStore is the labourer registry as seen by the assignment engine.
type LabourerStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Labourer, error)
	ByUserID(ctx context.Context, userID uuid.UUID) (*models.Labourer, error)
	PushTokensByCategory(ctx context.Context, category string) ([]string, error)
}

// UserStore resolves accounts for notification routing.
type UserStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AdminAlerter posts operational alerts for staff. Failures are logged only.
type AdminAlerter interface {
	NotifyNewBooking(alert BookingAlert) error
	NotifyPaymentCaptured(alert PaymentAlert) error
}

// BookingService is the assignment engine: it creates, lists, claims and
// transitions bookings.
type BookingService struct {
	bookings   BookingStore
	labourers  LabourerStore
	users      UserStore
	dispatcher notify.Dispatcher
	alerts     AdminAlerter
	async      func(func())
}

func NewBookingService(bookings BookingStore, labourers LabourerStore, users UserStore, dispatcher notify.Dispatcher, alerts AdminAlerter) *BookingService {
	return &BookingService{
		bookings:   bookings,
		labourers:  labourers,
		users:      users,
		dispatcher: dispatcher,
		alerts:     alerts,
		async:      runAsync,
	}
}

// CreateBookingInput is a customer's job request.
type CreateBookingInput struct {
	OwnerID       uuid.UUID
	LabourerID    *uuid.UUID
	Category      string
	Date          time.Time
	Mode          string
	NumberOfHours *int
	Notes         string
	Address       string
	HouseNumber   string
	Landmark      string
	Latitude      *float64
	Longitude     *float64
}

// Create stores a direct request when a labourer is named, otherwise a
// broadcast request for the category, and notifies the matching workers.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (_ *models.Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.Create")
	defer func() { finishSpan(span, err) }()

	mode, ok := models.ParseBookingMode(in.Mode)
	if !ok {
		return nil, newError(KindInvalidInput, "invalid booking mode")
	}
	if in.Date.IsZero() {
		return nil, newError(KindInvalidInput, "date is required")
	}
	if in.NumberOfHours != nil && *in.NumberOfHours <= 0 {
		return nil, newError(KindInvalidInput, "number of hours must be positive")
	}

	booking := &models.Booking{
		UserID:        in.OwnerID,
		Category:      strings.TrimSpace(in.Category),
		Date:          in.Date,
		BookingMode:   mode,
		NumberOfHours: in.NumberOfHours,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		Notes:         in.Notes,
		Address:       in.Address,
		HouseNumber:   in.HouseNumber,
		Landmark:      in.Landmark,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
	}

	var target *models.Labourer
	if in.LabourerID != nil {
		target, err = s.labourers.ByID(ctx, *in.LabourerID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "labourer not found")
		}
		if err != nil {
			return nil, internalError("load labourer", err)
		}
		booking.LabourerID = &target.ID
		if booking.Category == "" {
			booking.Category = target.Category
		}
	} else if booking.Category == "" {
		return nil, newError(KindInvalidInput, "category required for broadcast")
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, internalError("create booking", err)
	}
	span.SetAttributes(
		attribute.String("booking.id", booking.ID.String()),
		attribute.String("booking.category", booking.Category),
		attribute.Bool("booking.broadcast", target == nil),
	)

	if target != nil {
		s.notifyDirectRequest(ctx, booking, target)
	} else {
		s.notifyBroadcast(ctx, booking)
	}
	s.alertNewBooking(booking, target)

	return booking, nil
}

// ListForCustomer returns the caller's own bookings, newest date first.
func (s *BookingService) ListForCustomer(ctx context.Context, ownerID uuid.UUID) ([]models.Booking, error) {
	out, err := s.bookings.ListForUser(ctx, ownerID)
	if err != nil {
		return nil, internalError("list bookings", err)
	}
	return out, nil
}

// ListForWorker returns the caller's assigned bookings plus the open pending
// requests for their category.
func (s *BookingService) ListForWorker(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	labourer, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	out, err := s.bookings.ListForWorker(ctx, labourer.ID, labourer.Category)
	if err != nil {
		return nil, internalError("list bookings", err)
	}
	return out, nil
}

// Get returns a booking the caller may see: their own, one assigned to them,
// or an open pending request in their category.
func (s *BookingService) Get(ctx context.Context, callerID, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID == callerID || booking.Labourer.OwnedBy(callerID) {
		return booking, nil
	}

	if booking.IsOpen() && booking.Status == models.BookingPending {
		labourer, err := s.labourers.ByUserID(ctx, callerID)
		if err == nil && labourer.Category == booking.Category {
			return booking, nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, internalError("load labourer", err)
		}
	}
	return nil, newError(KindUnauthorized, "not authorized")
}

// Claim attaches the calling worker to an open broadcast booking and confirms
// it. When several workers race, exactly one succeeds; the rest get Conflict.
func (s *BookingService) Claim(ctx context.Context, userID, bookingID uuid.UUID) (_ *models.Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.Claim")
	defer func() { finishSpan(span, err) }()
	span.SetAttributes(attribute.String("booking.id", bookingID.String()))

	labourer, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOpen() {
		return nil, newError(KindConflict, "booking already claimed")
	}
	if booking.Status != models.BookingPending {
		return nil, newError(KindConflict, "booking is no longer open")
	}
	if booking.Category != labourer.Category {
		return nil, newError(KindForbidden, "category mismatch")
	}

	claimed, err := s.bookings.Claim(ctx, booking.ID, labourer.ID, labourer.Category)
	if errors.Is(err, repository.ErrConflict) {
		return nil, newError(KindConflict, "booking already claimed")
	}
	if err != nil {
		return nil, internalError("claim booking", err)
	}

	log.Printf("[Booking] %s claimed by labourer %s", claimed.ID, labourer.ID)
	s.notifyUser(ctx, claimed.UserID, notify.Message{
		Title: "Booking Confirmed",
		Body:  fmt.Sprintf("%s has accepted your %s request", labourer.Name, claimed.Category),
		Data:  bookingData(claimed, "booking_claimed"),
	})
	return claimed, nil
}

// UpdateStatus moves a booking to the requested status if the caller is the
// owner or the assigned worker and the transition table allows it.
func (s *BookingService) UpdateStatus(ctx context.Context, callerID, bookingID uuid.UUID, requested string) (_ *models.Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.UpdateStatus")
	defer func() { finishSpan(span, err) }()
	span.SetAttributes(
		attribute.String("booking.id", bookingID.String()),
		attribute.String("booking.status.requested", requested),
	)

	to := models.BookingStatus(strings.TrimSpace(requested))
	if !to.Valid() {
		return nil, newError(KindInvalidInput, "invalid status")
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var roles actor
	if booking.UserID == callerID {
		roles |= actorOwner
	}
	if booking.Labourer.OwnedBy(callerID) {
		roles |= actorWorker
	}
	// A labourer without an account cannot act on the booking, so its owner
	// speaks for them.
	if roles&actorOwner != 0 && booking.Labourer != nil && booking.Labourer.UserID == nil {
		roles |= actorWorker
	}
	if roles == 0 {
		return nil, newError(KindUnauthorized, "not authorized")
	}

	from := booking.Status
	if !canTransition(from, to, roles) {
		return nil, newError(KindConflict, fmt.Sprintf("cannot move booking from %s to %s", from, to))
	}

	if err := s.bookings.Transition(ctx, booking, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, newError(KindConflict, "booking was modified concurrently")
		}
		return nil, internalError("update booking status", err)
	}

	updated, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	log.Printf("[Booking] %s moved %s -> %s", updated.ID, from, to)

	msg := notify.Message{
		Title: "Booking Updated",
		Body:  fmt.Sprintf("Your %s booking is now %s", updated.Category, to),
		Data:  bookingData(updated, "status_updated"),
	}
	switch {
	case roles&actorWorker == 0 && updated.Labourer != nil && updated.Labourer.UserID != nil:
		s.notifyUser(ctx, *updated.Labourer.UserID, msg)
	case roles&actorOwner == 0:
		s.notifyUser(ctx, updated.UserID, msg)
	}
	return updated, nil
}

func (s *BookingService) load(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.ByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "booking not found")
	}
	if err != nil {
		return nil, internalError("load booking", err)
	}
	return booking, nil
}

func (s *BookingService) profileOf(ctx context.Context, userID uuid.UUID) (*models.Labourer, error) {
	labourer, err := s.labourers.ByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "profile not found")
	}
	if err != nil {
		return nil, internalError("load labourer profile", err)
	}
	return labourer, nil
}

func (s *BookingService) notifyDirectRequest(ctx context.Context, b *models.Booking, target *models.Labourer) {
	if target.UserID == nil {
		return
	}
	s.notifyUser(ctx, *target.UserID, notify.Message{
		Title: "New Job Request",
		Body:  fmt.Sprintf("You have a new %s request for %s", b.Category, b.Date.Format("02 Jan 2006")),
		Data:  bookingData(b, "booking_request"),
	})
}

func (s *BookingService) notifyBroadcast(ctx context.Context, b *models.Booking) {
	tokens, err := s.labourers.PushTokensByCategory(ctx, b.Category)
	if err != nil {
		log.Printf("[Booking] broadcast tokens for %s: %v", b.Category, err)
		return
	}
	s.dispatcher.Dispatch(notify.Job{
		Tokens: tokens,
		Message: notify.Message{
			Title: "New Job Available",
			Body:  fmt.Sprintf("A new %s job is available for %s", b.Category, b.Date.Format("02 Jan 2006")),
			Data:  bookingData(b, "broadcast_request"),
		},
	})
}

func (s *BookingService) notifyUser(ctx context.Context, userID uuid.UUID, msg notify.Message) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		log.Printf("[Booking] notification recipient %s: %v", userID, err)
		return
	}
	if user.FCMToken == "" {
		return
	}
	s.dispatcher.Dispatch(notify.Job{Tokens: []string{user.FCMToken}, Message: msg})
}

func (s *BookingService) alertNewBooking(b *models.Booking, target *models.Labourer) {
	if s.alerts == nil {
		return
	}
	alert := BookingAlert{
		BookingID: b.ID.String(),
		Category:  b.Category,
		Date:      b.Date,
		Mode:      string(b.BookingMode),
		Address:   b.Address,
	}
	if target != nil {
		alert.LabourerName = target.Name
	}
	s.async(func() {
		if err := s.alerts.NotifyNewBooking(alert); err != nil {
			log.Printf("[Booking] admin alert failed: %v", err)
		}
	})
}

func bookingData(b *models.Booking, kind string) map[string]string {
	return map[string]string{
		"type":       kind,
		"booking_id": b.ID.String(),
		"status":     string(b.Status),
	}
}
