package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/labourmarket/internal/models"
	"github.com/example/labourmarket/internal/repository"
)

// OrderRequest is a gateway order in minor currency units.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Gateway creates payment orders with an external provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (orderID string, err error)
}

// PaymentStore records orders and captures on bookings.
type PaymentStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	AttachOrder(ctx context.Context, bookingID uuid.UUID, orderID string, amount float64) error
	CapturePayment(ctx context.Context, bookingID uuid.UUID, orderID, paymentID string) error
}

// Order is returned to the client to open the checkout.
type Order struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	Amount    int64   `json:"amount"`
	Currency  string  `json:"currency"`
	Receipt   string  `json:"receipt"`
	Total     float64 `json:"total"`
}

// VerifyInput carries the checkout callback fields.
type VerifyInput struct {
	BookingID uuid.UUID
	OrderID   string
	PaymentID string
	Signature string
}

type VerifyResult struct {
	Verified bool
}

// PaymentService bridges bookings to the payment gateway.
type PaymentService struct {
	store    PaymentStore
	gateway  Gateway
	secret   string
	currency string
	alerts   AdminAlerter
	async    func(func())
}

func NewPaymentService(store PaymentStore, gateway Gateway, secret, currency string, alerts AdminAlerter) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		secret:   secret,
		currency: currency,
		alerts:   alerts,
		async:    runAsync,
	}
}

// CreateOrder opens a gateway order for a booking owned by the caller and
// records the order id and amount on it. Booking status is untouched.
func (s *PaymentService) CreateOrder(ctx context.Context, callerID, bookingID uuid.UUID, amount float64) (_ *Order, err error) {
	ctx, span := tracer.Start(ctx, "payment.CreateOrder")
	defer func() { finishSpan(span, err) }()
	span.SetAttributes(attribute.String("booking.id", bookingID.String()))

	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, newError(KindInvalidInput, "amount must be positive")
	}
	booking, err := s.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != callerID {
		return nil, newError(KindUnauthorized, "not authorized")
	}

	req := OrderRequest{
		AmountMinor: int64(math.Round(amount * 100)),
		Currency:    s.currency,
		Receipt:     "receipt_booking_" + booking.ID.String(),
		Notes: map[string]string{
			"booking_id": booking.ID.String(),
			"user_id":    booking.UserID.String(),
		},
	}
	orderID, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		return nil, internalError("create payment order", err)
	}

	if err := s.store.AttachOrder(ctx, booking.ID, orderID, amount); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "booking not found")
		}
		return nil, internalError("store payment order", err)
	}
	log.Printf("[Payment] order %s created for booking %s (%d %s)", orderID, booking.ID, req.AmountMinor, req.Currency)

	return &Order{
		ID:        orderID,
		BookingID: booking.ID.String(),
		Amount:    req.AmountMinor,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Total:     amount,
	}, nil
}

// Verify checks the checkout signature and, when it matches, marks the
// booking paid. A mismatch is a normal unverified result, not an error.
func (s *PaymentService) Verify(ctx context.Context, callerID uuid.UUID, in VerifyInput) (_ VerifyResult, err error) {
	ctx, span := tracer.Start(ctx, "payment.Verify")
	defer func() { finishSpan(span, err) }()
	span.SetAttributes(attribute.String("booking.id", in.BookingID.String()))

	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return VerifyResult{}, newError(KindInvalidInput, "order id, payment id and signature are required")
	}
	booking, err := s.booking(ctx, in.BookingID)
	if err != nil {
		return VerifyResult{}, err
	}
	if booking.UserID != callerID {
		return VerifyResult{}, newError(KindUnauthorized, "not authorized")
	}

	if !ValidSignature(s.secret, in.OrderID, in.PaymentID, in.Signature) {
		log.Printf("[Payment] signature mismatch for booking %s", booking.ID)
		span.SetAttributes(attribute.Bool("payment.verified", false))
		return VerifyResult{}, nil
	}

	err = s.store.CapturePayment(ctx, booking.ID, in.OrderID, in.PaymentID)
	if errors.Is(err, repository.ErrConflict) {
		return VerifyResult{}, newError(KindConflict, "order does not match a pending payment")
	}
	if err != nil {
		return VerifyResult{}, internalError("capture payment", err)
	}
	span.SetAttributes(attribute.Bool("payment.verified", true))
	log.Printf("[Payment] booking %s paid (payment %s)", booking.ID, in.PaymentID)

	if s.alerts != nil {
		alert := PaymentAlert{
			BookingID: booking.ID.String(),
			OrderID:   in.OrderID,
			PaymentID: in.PaymentID,
			Amount:    booking.Amount,
			Currency:  s.currency,
		}
		s.async(func() {
			if err := s.alerts.NotifyPaymentCaptured(alert); err != nil {
				log.Printf("[Payment] admin alert failed: %v", err)
			}
		})
	}
	return VerifyResult{Verified: true}, nil
}

func (s *PaymentService) booking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.store.ByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "booking not found")
	}
	if err != nil {
		return nil, internalError("load booking", err)
	}
	return booking, nil
}

// Signature returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares signature with the expected one in constant time.
// An empty secret rejects everything.
func ValidSignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" {
		return false
	}
	expected := Signature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
