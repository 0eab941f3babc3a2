package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/labourmarket/internal/models"
	"github.com/example/labourmarket/internal/repository"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	db        *gorm.DB
	users     *repository.UserRepo
	labourers *repository.LabourerRepo
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, users *repository.UserRepo, labourers *repository.LabourerRepo) *ProfileHandler {
	return &ProfileHandler{db: db, users: users, labourers: labourers}
}

func (h *ProfileHandler) loadUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	user, err := h.users.ByID(c.UserContext(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return user, err
}

// GetProfile returns the authenticated user and, for workers, their labourer
// profile (null until one exists).
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	data := fiber.Map{"user": user}
	if user.Role == models.RoleWorker {
		labourer, err := h.labourers.ByUserID(c.UserContext(), user.ID)
		switch {
		case err == nil:
			data["labourer"] = labourer
		case errors.Is(err, repository.ErrNotFound):
			data["labourer"] = nil
		default:
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateProfile updates account fields. A worker's display name is kept in
// sync on their labourer profile.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.users.Update(c.UserContext(), user.ID, map[string]any{
		"name":       name,
		"updated_at": time.Now(),
	}); err != nil {
		return err
	}
	if user.Role == models.RoleWorker {
		if _, err := h.labourers.SaveProfile(c.UserContext(), user.ID, repository.ProfileFields{Name: name}); err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// skillList accepts either a JSON array or a comma separated string.
type skillList []string

func (s *skillList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var csv string
	if err := json.Unmarshal(data, &csv); err != nil {
		return err
	}
	out := []string{}
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*s = out
	return nil
}

type workerProfileRequest struct {
	Category        string    `json:"category"`
	HourlyRate      float64   `json:"hourly_rate"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	Skills          skillList `json:"skills"`
	ExperienceYears int       `json:"experience_years"`
}

// SaveWorkerProfile creates or updates the caller's labourer profile.
func (h *ProfileHandler) SaveWorkerProfile(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}
	if user.Role != models.RoleWorker {
		return fiber.NewError(fiber.StatusForbidden, "access denied: not a worker")
	}

	var req workerProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Category) == "" || req.HourlyRate <= 0 ||
		strings.TrimSpace(req.Location) == "" || req.ExperienceYears <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "please enter all required fields")
	}

	labourer, err := h.labourers.SaveProfile(c.UserContext(), user.ID, repository.ProfileFields{
		Name:            user.Name,
		Category:        strings.TrimSpace(req.Category),
		HourlyRate:      req.HourlyRate,
		Description:     req.Description,
		Location:        strings.TrimSpace(req.Location),
		Skills:          req.Skills,
		ExperienceYears: req.ExperienceYears,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": labourer})
}

type pushTokenRequest struct {
	FCMToken string `json:"fcm_token"`
}

// UpdatePushToken stores the device token used for push notifications.
func (h *ProfileHandler) UpdatePushToken(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req pushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.users.SetPushToken(c.UserContext(), userID, req.FCMToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}
	log.Printf("[Profile] push token updated for %s", userID)

	return c.JSON(fiber.Map{"success": true, "message": "fcm token updated"})
}

type imageRequest struct {
	ProfilePicture string `json:"profile_picture"`
}

// UpdateImage replaces the profile picture and mirrors it onto the worker
// profile.
func (h *ProfileHandler) UpdateImage(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var req imageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProfilePicture == "" {
		return fiber.NewError(fiber.StatusBadRequest, "no image data provided")
	}

	if err := h.users.Update(c.UserContext(), user.ID, map[string]any{
		"profile_picture": req.ProfilePicture,
		"updated_at":      time.Now(),
	}); err != nil {
		return err
	}
	if user.Role == models.RoleWorker {
		if err := h.labourers.SetImage(c.UserContext(), user.ID, req.ProfilePicture); err != nil {
			return err
		}
	}
	user.ProfilePicture = req.ProfilePicture

	return c.JSON(fiber.Map{"success": true, "data": user})
}

// Address endpoints

// ListAddresses returns user addresses.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var addresses []models.UserAddress
	if err := h.db.WithContext(c.UserContext()).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&addresses).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": addresses})
}

type addressRequest struct {
	Label       *string  `json:"label"`
	Address     *string  `json:"address"`
	HouseNumber *string  `json:"house_number"`
	Landmark    *string  `json:"landmark"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func (r addressRequest) updates() map[string]any {
	updates := map[string]any{}
	if r.Label != nil {
		updates["label"] = *r.Label
	}
	if r.Address != nil {
		updates["address"] = *r.Address
	}
	if r.HouseNumber != nil {
		updates["house_number"] = *r.HouseNumber
	}
	if r.Landmark != nil {
		updates["landmark"] = *r.Landmark
	}
	if r.Latitude != nil {
		updates["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		updates["longitude"] = *r.Longitude
	}
	return updates
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateAddress creates an address for the user.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(deref(req.Address)) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "address is required")
	}

	address := models.UserAddress{
		UserID:      userID,
		Label:       deref(req.Label),
		Address:     deref(req.Address),
		HouseNumber: deref(req.HouseNumber),
		Landmark:    deref(req.Landmark),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&address).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": address})
}

// UpdateAddress updates a user address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	addrID, err := paramID(c)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	updates := req.updates()
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	updates["updated_at"] = time.Now()

	res := h.db.WithContext(c.UserContext()).
		Model(&models.UserAddress{}).
		Where("id = ? AND user_id = ?", addrID, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "address not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "address updated"})
}

// DeleteAddress removes a user address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	addrID, err := paramID(c)
	if err != nil {
		return err
	}

	res := h.db.WithContext(c.UserContext()).
		Where("id = ? AND user_id = ?", addrID, userID).
		Delete(&models.UserAddress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "address not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "address deleted"})
}
