package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"

	"github.com/example/labourmarket/internal/models"
	"github.com/example/labourmarket/internal/repository"
	"github.com/example/labourmarket/internal/utils"
)

// LabourerHandler serves the public labourer directory.
type LabourerHandler struct {
	labourers *repository.LabourerRepo
}

// NewLabourerHandler constructs LabourerHandler.
func NewLabourerHandler(labourers *repository.LabourerRepo) *LabourerHandler {
	return &LabourerHandler{labourers: labourers}
}

// ListLabourers returns paginated labourers, optionally filtered by category.
func (h *LabourerHandler) ListLabourers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	category := strings.TrimSpace(c.Query("category"))

	labourers, total, err := h.labourers.List(c.UserContext(), category, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    labourers,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetLabourer returns a single labourer by ID.
func (h *LabourerHandler) GetLabourer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	labourer, err := h.labourers.ByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "labourer not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": labourer})
}

type createLabourerRequest struct {
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Rating          float64   `json:"rating"`
	JobsCompleted   int       `json:"jobs_completed"`
	HourlyRate      float64   `json:"hourly_rate"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"image_url"`
	Location        string    `json:"location"`
	Skills          skillList `json:"skills"`
	ExperienceYears int       `json:"experience_years"`
}

// CreateLabourer adds a directory entry that is not linked to an account.
func (h *LabourerHandler) CreateLabourer(c *fiber.Ctx) error {
	var req createLabourerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" ||
		strings.TrimSpace(req.Location) == "" || req.HourlyRate <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	labourer := models.Labourer{
		Name:            strings.TrimSpace(req.Name),
		Category:        strings.TrimSpace(req.Category),
		Rating:          req.Rating,
		JobsCompleted:   req.JobsCompleted,
		HourlyRate:      req.HourlyRate,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		Location:        strings.TrimSpace(req.Location),
		Skills:          pq.StringArray(req.Skills),
		ExperienceYears: req.ExperienceYears,
	}
	if err := h.labourers.Create(c.UserContext(), &labourer); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": labourer})
}
