package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/velora-labs/video-api/internal/models"
	"github.com/velora-labs/video-api/internal/repository"
	"github.com/velora-labs/video-api/internal/transfer"
)

const scheduledTimeLayout = "2006-01-02T15:04"

type VideoService interface {
	Create(ctx context.Context, creatorID int64, vc *transfer.VideoCreation, primary, teaser, thumbnail *multipart.FileHeader) (*models.Video, error)
	UpdateInfo(ctx context.Context, id int64, actor *transfer.Viewer, patch *transfer.VideoPatch, primary, teaser, thumbnail *multipart.FileHeader) (*models.Video, error)
	Delete(ctx context.Context, id int64, actor *transfer.Viewer) error
	DeleteFile(ctx context.Context, id int64, kind string, actor *transfer.Viewer) error
	ListByPerformer(ctx context.Context, performerID int64) ([]*models.Video, error)
	IncreaseView(ctx context.Context, id, delta int64)
	IncreaseComment(ctx context.Context, id, delta int64)
	IncreaseLike(ctx context.Context, id, delta int64)
	IncreaseFavourite(ctx context.Context, id, delta int64)
}

type videoService struct {
	vr         repository.VideoRepository
	media      MediaStore
	transcoder Transcoder
	bus        EventBus
}

func NewVideoService(
	vr repository.VideoRepository,
	media MediaStore,
	transcoder Transcoder,
	bus EventBus) VideoService {
	return &videoService{
		vr:         vr,
		media:      media,
		transcoder: transcoder,
		bus:        bus,
	}
}

func (s *videoService) Create(ctx context.Context, creatorID int64, vc *transfer.VideoCreation, primary, teaser, thumbnail *multipart.FileHeader) (*models.Video, error) {
	if vc == nil || vc.Title == "" {
		slog.Info("video creation payload is missing a title")
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if primary == nil {
		slog.Info("video creation without a primary file")
		return nil, fmt.Errorf("%w: primary video file is required", ErrInvalidInput)
	}

	status := vc.Status
	if status == "" {
		status = models.VideoStatusActive
	}

	var scheduledAt *time.Time
	if vc.IsSchedule {
		t, err := time.Parse(scheduledTimeLayout, vc.ScheduledAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, fmt.Errorf("%w: invalid scheduled time", ErrInvalidInput)
		}
		scheduledAt = &t
	}

	tags, participants, err := parseSets(vc.Tags, vc.Participants)
	if err != nil {
		return nil, err
	}

	// Files are sniffed then stored one at a time; if a later file is
	// rejected, everything stored so far is released again.
	var stored []string
	release := func() {
		for _, id := range stored {
			if err := s.media.Remove(ctx, id); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	fileID, err := s.storeChecked(ctx, creatorID, primary, isVideoMime)
	if err != nil {
		release()
		return nil, err
	}
	stored = append(stored, fileID)

	var teaserID *string
	if teaser != nil {
		id, err := s.storeChecked(ctx, creatorID, teaser, isVideoMime)
		if err != nil {
			release()
			return nil, err
		}
		stored = append(stored, id)
		teaserID = &id
	}

	var thumbnailID *string
	if thumbnail != nil {
		id, err := s.storeChecked(ctx, creatorID, thumbnail, isImageMime)
		if err != nil {
			release()
			return nil, err
		}
		stored = append(stored, id)
		thumbnailID = &id
	}

	slug, err := s.uniqueSlug(ctx, vc.Title, 0)
	if err != nil {
		release()
		return nil, err
	}

	video := &models.Video{
		PerformerID:      creatorID,
		Title:            vc.Title,
		Slug:             slug,
		Description:      vc.Description,
		FileID:           fileID,
		TeaserID:         teaserID,
		ThumbnailID:      thumbnailID,
		Processing:       true,
		TeaserProcessing: teaserID != nil,
		Status:           status,
		IsSale:           vc.IsSale,
		Price:            vc.Price,
		IsSchedule:       vc.IsSchedule,
		ScheduledAt:      scheduledAt,
		Tags:             tags,
		ParticipantIDs:   participants,
		CreatedBy:        creatorID,
		UpdatedBy:        creatorID,
	}

	id, err := s.vr.Create(ctx, nil, video)
	if err != nil {
		release()
		return nil, fmt.Errorf("error creating video: %w", err)
	}
	video.ID = id

	for _, fid := range stored {
		if err := s.media.AddRef(ctx, fid, id, models.PurchaseTargetVideo); err != nil {
			slog.Info(err.Error())
		}
	}

	if video.Status == models.VideoStatusActive {
		if err := s.bus.PublishCountUpdated(ctx, video, ""); err != nil {
			slog.Info(err.Error())
		}
	}

	if err := s.transcoder.EnqueueTranscode(ctx, fileID, id, models.TrackPrimary); err != nil {
		slog.Error(err.Error())
	}
	if teaserID != nil {
		if err := s.transcoder.EnqueueTranscode(ctx, *teaserID, id, models.TrackTeaser); err != nil {
			slog.Error(err.Error())
		}
	}

	return video, nil
}

func (s *videoService) UpdateInfo(ctx context.Context, id int64, actor *transfer.Viewer, patch *transfer.VideoPatch, primary, teaser, thumbnail *multipart.FileHeader) (*models.Video, error) {
	video, err := s.vr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, fmt.Errorf("%w: video %d", ErrNotFound, id)
	}
	if !actor.IsAdmin() && (actor == nil || actor.ID != video.PerformerID) {
		return nil, fmt.Errorf("%w: only the owner or an admin may update a video", ErrForbidden)
	}

	oldStatus := video.Status

	if patch != nil {
		if patch.Title != nil && *patch.Title != video.Title {
			slug, err := s.uniqueSlug(ctx, *patch.Title, video.ID)
			if err != nil {
				return nil, err
			}
			video.Title = *patch.Title
			video.Slug = slug
		}
		if patch.Description != nil {
			video.Description = *patch.Description
		}
		if patch.Status != nil {
			// A normal update may not report a conversion failure;
			// only the transcoding pipeline sets file-error.
			if *patch.Status == models.VideoStatusFileError {
				return nil, fmt.Errorf("%w: status %s is reserved", ErrInvalidInput, models.VideoStatusFileError)
			}
			video.Status = *patch.Status
		}
		if patch.IsSale != nil {
			video.IsSale = *patch.IsSale
		}
		if patch.Price != nil {
			video.Price = *patch.Price
		}
		if patch.IsSchedule != nil {
			video.IsSchedule = *patch.IsSchedule
		}
		if patch.ScheduledAt != nil {
			video.ScheduledAt = patch.ScheduledAt
		}
		if patch.Tags != nil {
			video.Tags = *patch.Tags
		}
		if patch.Participants != nil {
			video.ParticipantIDs = *patch.Participants
		}
	}

	var transcode []string

	if primary != nil {
		newID, err := s.swapFile(ctx, video, primary, isVideoMime, video.FileID)
		if err == nil && newID != "" {
			video.FileID = newID
			video.Processing = true
			transcode = append(transcode, newID+":"+models.TrackPrimary)
		}
	}
	if teaser != nil {
		old := ""
		if video.TeaserID != nil {
			old = *video.TeaserID
		}
		newID, err := s.swapFile(ctx, video, teaser, isVideoMime, old)
		if err == nil && newID != "" {
			video.TeaserID = &newID
			video.TeaserProcessing = true
			transcode = append(transcode, newID+":"+models.TrackTeaser)
		}
	}
	if thumbnail != nil {
		old := ""
		if video.ThumbnailID != nil {
			old = *video.ThumbnailID
		}
		newID, err := s.swapFile(ctx, video, thumbnail, isImageMime, old)
		if err == nil && newID != "" {
			video.ThumbnailID = &newID
		}
	}

	video.UpdatedBy = actor.ID
	if err := s.vr.UpdateInfo(ctx, video); err != nil {
		return nil, fmt.Errorf("error updating video: %w", err)
	}

	for _, job := range transcode {
		parts := strings.SplitN(job, ":", 2)
		if err := s.transcoder.EnqueueTranscode(ctx, parts[0], video.ID, parts[1]); err != nil {
			slog.Error(err.Error())
		}
	}

	if err := s.bus.PublishCountUpdated(ctx, video, oldStatus); err != nil {
		slog.Info(err.Error())
	}

	return video, nil
}

// swapFile stores a replacement file and releases the one it replaces.
// A replacement that fails its media-type check is discarded without
// touching the existing reference.
func (s *videoService) swapFile(ctx context.Context, video *models.Video, file *multipart.FileHeader, check func(string) bool, oldID string) (string, error) {
	newID, err := s.storeChecked(ctx, video.PerformerID, file, check)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if err := s.media.AddRef(ctx, newID, video.ID, models.PurchaseTargetVideo); err != nil {
		slog.Info(err.Error())
	}
	if oldID != "" {
		if err := s.media.Remove(ctx, oldID); err != nil {
			slog.Info(err.Error())
		}
	}
	return newID, nil
}

func (s *videoService) Delete(ctx context.Context, id int64, actor *transfer.Viewer) error {
	video, err := s.vr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if video == nil {
		return fmt.Errorf("%w: video %d", ErrNotFound, id)
	}
	if !actor.IsAdmin() && (actor == nil || actor.ID != video.PerformerID) {
		return fmt.Errorf("%w: only the owner or an admin may delete a video", ErrForbidden)
	}

	if err := s.vr.Remove(ctx, id); err != nil {
		return fmt.Errorf("error removing video: %w", err)
	}

	// Best effort from here: the record is gone first, file cleanup
	// may partially fail without resurrecting it.
	fileIDs := []string{video.FileID}
	if video.TeaserID != nil {
		fileIDs = append(fileIDs, *video.TeaserID)
	}
	if video.ThumbnailID != nil {
		fileIDs = append(fileIDs, *video.ThumbnailID)
	}
	for _, fid := range fileIDs {
		if err := s.media.Remove(ctx, fid); err != nil {
			slog.Info(err.Error())
		}
	}

	if err := s.bus.PublishCountUpdated(ctx, video, video.Status); err != nil {
		slog.Info(err.Error())
	}
	if err := s.bus.PublishVideosDeleted(ctx, video); err != nil {
		slog.Info(err.Error())
	}

	return nil
}

func (s *videoService) DeleteFile(ctx context.Context, id int64, kind string, actor *transfer.Viewer) error {
	video, err := s.vr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if video == nil {
		return fmt.Errorf("%w: video %d", ErrNotFound, id)
	}

	if !actor.IsAdmin() && (actor == nil || actor.ID != video.PerformerID) {
		return fmt.Errorf("%w: only the owner or an admin may delete files", ErrForbidden)
	}

	var fileID string
	switch kind {
	case models.FileKindTeaser:
		if video.TeaserID != nil {
			fileID = *video.TeaserID
		}
	case models.FileKindThumbnail:
		if video.ThumbnailID != nil {
			fileID = *video.ThumbnailID
		}
	default:
		return fmt.Errorf("%w: file kind %q", ErrInvalidInput, kind)
	}

	if fileID == "" {
		return nil
	}

	if err := s.vr.ClearFileRef(ctx, id, kind); err != nil {
		return err
	}
	if err := s.media.Remove(ctx, fileID); err != nil {
		slog.Info(err.Error())
	}
	return nil
}

func (s *videoService) ListByPerformer(ctx context.Context, performerID int64) ([]*models.Video, error) {
	videos, err := s.vr.ListByPerformer(ctx, performerID)
	if err != nil {
		return nil, fmt.Errorf("error listing videos: %w", err)
	}
	return videos, nil
}

func (s *videoService) IncreaseView(ctx context.Context, id, delta int64) {
	s.increase(ctx, id, models.CounterViews, delta)
}

func (s *videoService) IncreaseComment(ctx context.Context, id, delta int64) {
	s.increase(ctx, id, models.CounterComments, delta)
}

func (s *videoService) IncreaseLike(ctx context.Context, id, delta int64) {
	s.increase(ctx, id, models.CounterLikes, delta)
}

func (s *videoService) IncreaseFavourite(ctx context.Context, id, delta int64) {
	s.increase(ctx, id, models.CounterBookmarks, delta)
}

// increase never reports failure upward: counter adjustments for a
// video that has since been deleted are a no-op, not a caller error.
func (s *videoService) increase(ctx context.Context, id int64, column string, delta int64) {
	if err := s.vr.IncrementCounter(ctx, id, column, delta); err != nil {
		slog.Info(err.Error())
	}
}

func (s *videoService) uniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		slug = "video"
	}

	exists, err := s.vr.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if !exists {
		return slug, nil
	}

	for {
		suffix, err := SlugSuffix()
		if err != nil {
			slog.Info(err.Error())
			return "", err
		}
		candidate := slug + "-" + suffix

		exists, err := s.vr.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func (s *videoService) storeChecked(ctx context.Context, ownerID int64, file *multipart.FileHeader, check func(string) bool) (string, error) {
	content, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return "", fmt.Errorf("%w: unrecognized file type", ErrInvalidInput)
	}
	if !check(kind.MIME.Value) {
		return "", fmt.Errorf("%w: file type %s is not allowed", ErrInvalidInput, kind.MIME.Value)
	}

	return s.media.Store(ctx, ownerID, data, kind.MIME.Value)
}

func isVideoMime(mime string) bool {
	return strings.HasPrefix(mime, "video/")
}

func isImageMime(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

func parseSets(tagsJSON, participantsJSON string) ([]string, []int64, error) {
	var tags []string
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			slog.Info(err.Error())
			return nil, nil, fmt.Errorf("%w: invalid tags format", ErrInvalidInput)
		}
	}

	var participants []int64
	if participantsJSON != "" {
		if err := json.Unmarshal([]byte(participantsJSON), &participants); err != nil {
			slog.Info(err.Error())
			return nil, nil, fmt.Errorf("%w: invalid participants format", ErrInvalidInput)
		}
	}

	return tags, participants, nil
}
