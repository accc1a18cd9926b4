package handlers

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/velora-labs/video-api/internal/service"
	"github.com/velora-labs/video-api/internal/transfer"
)

type VideoHandler struct {
	s      service.VideoService
	access service.AccessService
}

func NewVideoHandler(videoService service.VideoService, accessService service.AccessService) *VideoHandler {
	return &VideoHandler{s: videoService, access: accessService}
}

func (h *VideoHandler) CreateVideo(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	isSale, _ := strconv.ParseBool(c.FormValue("is_sale"))
	price, _ := strconv.ParseFloat(c.FormValue("price"), 64)
	isSchedule, _ := strconv.ParseBool(c.FormValue("is_schedule"))

	vc := &transfer.VideoCreation{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		Status:       c.FormValue("status"),
		IsSale:       isSale,
		Price:        price,
		IsSchedule:   isSchedule,
		ScheduledAt:  c.FormValue("scheduled_at"),
		Tags:         c.FormValue("tags"),
		Participants: c.FormValue("participants"),
	}

	video, err := h.s.Create(c.Context(), userID, vc,
		firstFile(form, "file"),
		firstFile(form, "teaser"),
		firstFile(form, "thumbnail"))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(video)
}

func (h *VideoHandler) UpdateVideo(c *fiber.Ctx) error {
	viewer := GetViewer(c)
	videoID := int64(c.QueryInt("id", 0))

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	patch, err := patchFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	video, err := h.s.UpdateInfo(c.Context(), videoID, viewer, patch,
		firstFile(form, "file"),
		firstFile(form, "teaser"),
		firstFile(form, "thumbnail"))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(video)
}

func (h *VideoHandler) RemoveVideo(c *fiber.Ctx) error {
	viewer := GetViewer(c)
	videoID := int64(c.QueryInt("id", 0))

	if err := h.s.Delete(c.Context(), videoID, viewer); err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": "Unable to remove video",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *VideoHandler) RemoveVideoFile(c *fiber.Ctx) error {
	viewer := GetViewer(c)
	videoID := int64(c.QueryInt("id", 0))
	kind := c.Query("kind")

	if err := h.s.DeleteFile(c.Context(), videoID, kind, viewer); err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *VideoHandler) ListMyVideos(c *fiber.Ctx) error {
	userID := GetUserID(c)

	videos, err := h.s.ListByPerformer(c.Context(), userID)
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

func (h *VideoHandler) VideoDetails(c *fiber.Ctx) error {
	idOrSlug := c.Params("id")

	view, err := h.access.GetDetails(c.Context(), idOrSlug, GetViewer(c))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// CheckAuth backs the signed-URL validator of the media proxy.
func (h *VideoHandler) CheckAuth(c *fiber.Ctx) error {
	videoID := c.Query("video_id")

	ok, err := h.access.CheckAuth(c.Context(), videoID, GetViewer(c))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"authorized": ok,
	})
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func patchFromForm(c *fiber.Ctx) (*transfer.VideoPatch, error) {
	patch := &transfer.VideoPatch{}

	if v := c.FormValue("title"); v != "" {
		patch.Title = &v
	}
	if v := c.FormValue("description"); v != "" {
		patch.Description = &v
	}
	if v := c.FormValue("status"); v != "" {
		patch.Status = &v
	}
	if v := c.FormValue("is_sale"); v != "" {
		isSale, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		patch.IsSale = &isSale
	}
	if v := c.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		patch.Price = &price
	}
	if v := c.FormValue("is_schedule"); v != "" {
		isSchedule, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		patch.IsSchedule = &isSchedule
	}
	if v := c.FormValue("scheduled_at"); v != "" {
		t, err := time.Parse("2006-01-02T15:04", v)
		if err != nil {
			return nil, err
		}
		patch.ScheduledAt = &t
	}
	if v := c.FormValue("tags"); v != "" {
		var tags []string
		if err := json.Unmarshal([]byte(v), &tags); err != nil {
			return nil, err
		}
		patch.Tags = &tags
	}
	if v := c.FormValue("participants"); v != "" {
		var participants []int64
		if err := json.Unmarshal([]byte(v), &participants); err != nil {
			return nil, err
		}
		patch.Participants = &participants
	}

	return patch, nil
}
