package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/labourmarket/internal/services"
)

// PaymentHandler bridges checkout to the payment gateway.
type PaymentHandler struct {
	payments *services.PaymentService
	keyID    string
}

// NewPaymentHandler constructs PaymentHandler. keyID is handed to clients to
// open the checkout.
func NewPaymentHandler(payments *services.PaymentService, keyID string) *PaymentHandler {
	return &PaymentHandler{payments: payments, keyID: keyID}
}

type createOrderRequest struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
}

// CreateOrder opens a gateway order for the caller's booking.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid booking id")
	}

	order, err := h.payments.CreateOrder(c.UserContext(), userID, bookingID, req.Amount)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
		"key_id":  h.keyID,
	})
}

type verifyPaymentRequest struct {
	BookingID         string `json:"booking_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// VerifyPayment checks the checkout signature and captures the payment.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid booking id")
	}

	res, err := h.payments.Verify(c.UserContext(), userID, services.VerifyInput{
		BookingID: bookingID,
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		return serviceError(err)
	}
	if !res.Verified {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid signature",
		})
	}

	return c.JSON(fiber.Map{"success": true, "message": "payment verified"})
}
