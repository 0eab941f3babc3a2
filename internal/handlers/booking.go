package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/labourmarket/internal/services"
)

// BookingHandler exposes the assignment engine over HTTP.
type BookingHandler struct {
	bookings *services.BookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type createBookingRequest struct {
	LabourerID    string   `json:"labourer_id"`
	Category      string   `json:"category"`
	Date          string   `json:"date"`
	BookingMode   string   `json:"booking_mode"`
	NumberOfHours *int     `json:"number_of_hours"`
	Notes         string   `json:"notes"`
	Address       string   `json:"address"`
	HouseNumber   string   `json:"house_number"`
	Landmark      string   `json:"landmark"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreateBooking stores a direct or broadcast job request.
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	in := services.CreateBookingInput{
		OwnerID:       userID,
		Category:      req.Category,
		Mode:          req.BookingMode,
		NumberOfHours: req.NumberOfHours,
		Notes:         req.Notes,
		Address:       req.Address,
		HouseNumber:   req.HouseNumber,
		Landmark:      req.Landmark,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	if req.Date != "" {
		date, ok := parseDate(req.Date)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid date")
		}
		in.Date = date
	}
	if req.LabourerID != "" {
		id, err := uuid.Parse(req.LabourerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid labourer id")
		}
		in.LabourerID = &id
	}

	booking, err := h.bookings.Create(c.UserContext(), in)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": booking})
}

// ListUserBookings returns the caller's own bookings.
func (h *BookingHandler) ListUserBookings(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	bookings, err := h.bookings.ListForCustomer(c.UserContext(), userID)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": bookings})
}

// ListWorkerBookings returns the caller's assigned bookings and the open
// requests in their category.
func (h *BookingHandler) ListWorkerBookings(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	bookings, err := h.bookings.ListForWorker(c.UserContext(), userID)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": bookings})
}

// GetBooking returns a single booking visible to the caller.
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	booking, err := h.bookings.Get(c.UserContext(), userID, id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// ClaimBooking assigns an open broadcast booking to the calling worker.
func (h *BookingHandler) ClaimBooking(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	booking, err := h.bookings.Claim(c.UserContext(), userID, id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateBookingStatus applies a status transition.
func (h *BookingHandler) UpdateBookingStatus(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	booking, err := h.bookings.UpdateStatus(c.UserContext(), userID, id, req.Status)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}
