package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/labourmarket/internal/middleware"
	"github.com/example/labourmarket/internal/services"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindInvalidInput: fiber.StatusBadRequest,
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindConflict:     fiber.StatusConflict,
	services.KindForbidden:    fiber.StatusForbidden,
	services.KindUnauthorized: fiber.StatusUnauthorized,
}

// serviceError converts an engine error into a fiber error. Internal errors
// are passed through so the ErrorHandler can log them.
func serviceError(err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		return err
	}
	if status, ok := kindStatus[svcErr.Kind]; ok {
		return fiber.NewError(status, svcErr.Message)
	}
	return err
}

// ErrorHandler renders every failed request as {"success": false, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	} else {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}
