package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/velora-labs/video-api/internal/models"
	"github.com/velora-labs/video-api/internal/repository"
	"github.com/velora-labs/video-api/internal/transfer"
)

// Decision is the outcome of an entitlement check for one viewer and
// one video.
type Decision struct {
	Allowed      bool
	IsSubscribed bool
	IsBought     bool
}

type AccessService interface {
	GetDetails(ctx context.Context, idOrSlug string, viewer *transfer.Viewer) (*transfer.VideoView, error)
	AnnotateList(ctx context.Context, videos []*models.Video, viewer *transfer.Viewer) ([]*transfer.VideoView, error)
	CheckAuth(ctx context.Context, videoID string, viewer *transfer.Viewer) (bool, error)
}

type accessService struct {
	vr    repository.VideoRepository
	sr    repository.SubscriptionRepository
	pr    repository.PurchaseRepository
	vs    VideoService
	media MediaStore
	now   func() time.Time
}

func NewAccessService(
	vr repository.VideoRepository,
	sr repository.SubscriptionRepository,
	pr repository.PurchaseRepository,
	vs VideoService,
	media MediaStore) AccessService {
	return &accessService{
		vr:    vr,
		sr:    sr,
		pr:    pr,
		vs:    vs,
		media: media,
		now:   time.Now,
	}
}

// Decide computes entitlement from already-fetched records. Owners and
// admins always pass and report both flags true; everyone else needs an
// unexpired subscription for subscription-gated videos or a successful
// purchase for pay-per-view ones. Schedule gating is separate, see
// EmbargoLocked.
func Decide(video *models.Video, viewer *transfer.Viewer, sub *models.Subscription, bought bool, now time.Time) Decision {
	if viewer.IsAdmin() || (viewer != nil && viewer.ID == video.PerformerID) {
		return Decision{Allowed: true, IsSubscribed: true, IsBought: true}
	}

	var d Decision
	if video.IsSale {
		d.IsBought = bought
		d.Allowed = bought
	} else {
		d.IsSubscribed = sub != nil && now.Before(sub.ExpiredAt)
		d.Allowed = d.IsSubscribed
	}
	return d
}

// EmbargoLocked reports whether the scheduled-release rule forbids
// playback. The comparison is deliberate: a scheduled video locks once
// its scheduled instant has passed. This mirrors the long-standing
// production behaviour and must not be flipped without a product
// decision.
func EmbargoLocked(video *models.Video, now time.Time) bool {
	return video.IsSchedule && video.ScheduledAt != nil && video.ScheduledAt.Before(now)
}

func (s *accessService) GetDetails(ctx context.Context, idOrSlug string, viewer *transfer.Viewer) (*transfer.VideoView, error) {
	video, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, fmt.Errorf("%w: video %s", ErrNotFound, idOrSlug)
	}

	decision, err := s.decide(ctx, video, viewer)
	if err != nil {
		return nil, err
	}

	ownerOrAdmin := viewer.IsAdmin() || (viewer != nil && viewer.ID == video.PerformerID)
	if !ownerOrAdmin && EmbargoLocked(video, s.now()) {
		decision.Allowed = false
	}

	// Views count for locked previews too.
	s.vs.IncreaseView(ctx, video.ID, 1)
	video.ViewCount++

	mf, ok, err := s.media.FindByID(ctx, video.FileID)
	if err != nil {
		slog.Info(err.Error())
	}
	if !ok {
		mf = nil
	}

	return s.view(video, decision, mf), nil
}

// AnnotateList decorates videos with per-viewer entitlement flags using
// bulk lookups. It neither enforces the schedule embargo nor touches
// view counters; filtering by status stays with the caller.
func (s *accessService) AnnotateList(ctx context.Context, videos []*models.Video, viewer *transfer.Viewer) ([]*transfer.VideoView, error) {
	views := make([]*transfer.VideoView, 0, len(videos))
	if len(videos) == 0 {
		return views, nil
	}

	fileIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		fileIDs = append(fileIDs, v.FileID)
	}
	files := map[string]*models.MediaFile{}
	mediaFiles, err := s.media.FindByIDs(ctx, fileIDs)
	if err != nil {
		slog.Info(err.Error())
	}
	for _, mf := range mediaFiles {
		files[mf.ID] = mf
	}

	subs := map[int64]*models.Subscription{}
	bought := map[int64]bool{}

	if viewer != nil {
		performerIDs := make([]int64, 0, len(videos))
		videoIDs := make([]int64, 0, len(videos))
		for _, v := range videos {
			performerIDs = append(performerIDs, v.PerformerID)
			videoIDs = append(videoIDs, v.ID)
		}

		subscriptions, err := s.sr.ListBySubscriber(ctx, viewer.ID, performerIDs, true)
		if err != nil {
			return nil, err
		}
		for _, sub := range subscriptions {
			subs[sub.PerformerID] = sub
		}

		purchases, err := s.pr.ListByTargets(ctx, viewer.ID, videoIDs, models.PurchaseTargetVideo, models.PurchaseStatusSuccess)
		if err != nil {
			return nil, err
		}
		for _, p := range purchases {
			bought[p.TargetID] = true
		}
	}

	now := s.now()
	for _, video := range videos {
		decision := Decide(video, viewer, subs[video.PerformerID], bought[video.ID], now)
		views = append(views, s.view(video, decision, files[video.FileID]))
	}
	return views, nil
}

// CheckAuth backs signed-URL validation. It only answers true for an
// admin, the owner, a live subscription on a subscription-gated video,
// or a successful purchase on a pay-per-view one; every remaining path,
// the passed schedule embargo included, is forbidden.
func (s *accessService) CheckAuth(ctx context.Context, videoID string, viewer *transfer.Viewer) (bool, error) {
	if videoID == "" {
		slog.Info("auth check without a video id")
		return false, fmt.Errorf("%w: video id is required", ErrForbidden)
	}

	video, err := s.resolve(ctx, videoID)
	if err != nil {
		return false, err
	}
	if video == nil {
		return false, fmt.Errorf("%w: video %s", ErrNotFound, videoID)
	}

	if viewer.IsAdmin() || (viewer != nil && viewer.ID == video.PerformerID) {
		return true, nil
	}

	if EmbargoLocked(video, s.now()) {
		return false, fmt.Errorf("%w: video is outside its release window", ErrForbidden)
	}

	decision, err := s.decide(ctx, video, viewer)
	if err != nil {
		return false, err
	}
	if !decision.Allowed {
		return false, fmt.Errorf("%w: viewer is not entitled", ErrForbidden)
	}
	return true, nil
}

func (s *accessService) decide(ctx context.Context, video *models.Video, viewer *transfer.Viewer) (Decision, error) {
	var sub *models.Subscription
	var bought bool

	if viewer != nil && !viewer.IsAdmin() && viewer.ID != video.PerformerID {
		if video.IsSale {
			var err error
			bought, err = s.pr.CheckSuccess(ctx, viewer.ID, video.ID, models.PurchaseTargetVideo)
			if err != nil {
				return Decision{}, err
			}
		} else {
			var err error
			sub, _, err = s.sr.FindBySubscriber(ctx, video.PerformerID, viewer.ID)
			if err != nil {
				return Decision{}, err
			}
		}
	}

	return Decide(video, viewer, sub, bought, s.now()), nil
}

func (s *accessService) resolve(ctx context.Context, idOrSlug string) (*models.Video, error) {
	if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil {
		return s.vr.GetByID(ctx, id)
	}
	return s.vr.GetBySlug(ctx, idOrSlug)
}

func (s *accessService) view(video *models.Video, decision Decision, mf *models.MediaFile) *transfer.VideoView {
	view := &transfer.VideoView{
		Video:        video,
		IsSubscribed: decision.IsSubscribed,
		IsBought:     decision.IsBought,
		URL:          s.media.RenderURL(video.FileID, decision.Allowed),
	}
	if mf != nil {
		view.Duration = mf.Duration
		view.FileStatus = mf.Status
	}
	if video.TeaserID != nil {
		view.TeaserURL = s.media.RenderURL(*video.TeaserID, true)
	}
	if video.ThumbnailID != nil {
		view.ThumbnailURL = s.media.RenderURL(*video.ThumbnailID, true)
	}
	return view
}
