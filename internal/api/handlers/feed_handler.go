package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/velora-labs/video-api/internal/repository"
	"github.com/velora-labs/video-api/internal/service"
)

// FeedHandler serves the public active-video listing. Anonymous
// viewers get annotation defaults (everything false, locked URLs).
type FeedHandler struct {
	vr     repository.VideoRepository
	access service.AccessService
}

func NewFeedHandler(vr repository.VideoRepository, accessService service.AccessService) *FeedHandler {
	return &FeedHandler{vr: vr, access: accessService}
}

func (h *FeedHandler) ListActiveVideos(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	videos, err := h.vr.ListActive(c.Context(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list videos",
		})
	}

	views, err := h.access.AnnotateList(c.Context(), videos, GetViewer(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list videos",
		})
	}

	return c.Status(fiber.StatusOK).JSON(views)
}
