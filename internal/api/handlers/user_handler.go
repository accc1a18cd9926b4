package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/velora-labs/video-api/internal/service"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{s: userService}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userID := GetUserID(c)

	user, err := h.s.GetUserInfo(c.Context(), userID)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": "Unable to get user info",
		})
	}

	return c.Status(fiber.StatusOK).JSON(user)
}
