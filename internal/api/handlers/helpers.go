package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/velora-labs/video-api/internal/service"
	"github.com/velora-labs/video-api/internal/transfer"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.Atoi(raw)
	return int64(userID)
}

// GetViewer builds the caller identity from the middleware locals.
// Returns nil for anonymous requests.
func GetViewer(c *fiber.Ctx) *transfer.Viewer {
	id := GetUserID(c)
	if id == 0 {
		return nil
	}
	roles, _ := c.Locals("roles").([]string)
	return &transfer.Viewer{ID: id, Roles: roles}
}

// errorStatus maps the service error taxonomy onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}
