package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/velora-labs/video-api/internal/models"
	"github.com/velora-labs/video-api/internal/transfer"
)

type subscriptionRepoStub struct {
	subs map[string]*models.Subscription // "performer:subscriber"
}

func newSubscriptionRepoStub() *subscriptionRepoStub {
	return &subscriptionRepoStub{subs: make(map[string]*models.Subscription)}
}

func subKey(performerID, subscriberID int64) string {
	return strconv.FormatInt(performerID, 10) + ":" + strconv.FormatInt(subscriberID, 10)
}

func (s *subscriptionRepoStub) add(sub *models.Subscription) {
	s.subs[subKey(sub.PerformerID, sub.SubscriberID)] = sub
}

func (s *subscriptionRepoStub) FindBySubscriber(_ context.Context, performerID, subscriberID int64) (*models.Subscription, bool, error) {
	sub, ok := s.subs[subKey(performerID, subscriberID)]
	return sub, ok, nil
}

func (s *subscriptionRepoStub) ListBySubscriber(_ context.Context, subscriberID int64, performerIDs []int64, notExpired bool) ([]*models.Subscription, error) {
	var out []*models.Subscription
	for _, pid := range performerIDs {
		sub, ok := s.subs[subKey(pid, subscriberID)]
		if !ok {
			continue
		}
		if notExpired && !sub.ExpiredAt.After(time.Now()) {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

type purchaseRepoStub struct {
	purchases map[string]*models.Purchase // "source:target"
}

func newPurchaseRepoStub() *purchaseRepoStub {
	return &purchaseRepoStub{purchases: make(map[string]*models.Purchase)}
}

func (s *purchaseRepoStub) add(p *models.Purchase) {
	s.purchases[subKey(p.SourceID, p.TargetID)] = p
}

func (s *purchaseRepoStub) CheckSuccess(_ context.Context, sourceID, targetID int64, targetType string) (bool, error) {
	p, ok := s.purchases[subKey(sourceID, targetID)]
	return ok && p.TargetType == targetType && p.Status == models.PurchaseStatusSuccess, nil
}

func (s *purchaseRepoStub) ListByTargets(_ context.Context, sourceID int64, targetIDs []int64, targetType, status string) ([]*models.Purchase, error) {
	var out []*models.Purchase
	for _, tid := range targetIDs {
		p, ok := s.purchases[subKey(sourceID, tid)]
		if ok && p.TargetType == targetType && p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

type accessFixture struct {
	repo      *videoRepoStub
	subs      *subscriptionRepoStub
	purchases *purchaseRepoStub
	media     *mediaStoreStub
	svc       *accessService
	now       time.Time
}

func newAccessFixture() *accessFixture {
	repo := newVideoRepoStub()
	subs := newSubscriptionRepoStub()
	purchases := newPurchaseRepoStub()
	media := newMediaStoreStub()
	videoSvc := NewVideoService(repo, media, &transcoderStub{}, &busStub{})

	svc := NewAccessService(repo, subs, purchases, videoSvc, media).(*accessService)
	fixed := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return fixed }

	return &accessFixture{
		repo:      repo,
		subs:      subs,
		purchases: purchases,
		media:     media,
		svc:       svc,
		now:       fixed,
	}
}

func (f *accessFixture) seed(v *models.Video) *models.Video {
	return seedVideo(f.repo, v)
}

func TestDecideOwnerAndAdminBypass(t *testing.T) {
	video := &models.Video{ID: 1, PerformerID: 10, IsSale: true}

	owner := &transfer.Viewer{ID: 10}
	d := Decide(video, owner, nil, false, time.Now())
	if !d.Allowed || !d.IsSubscribed || !d.IsBought {
		t.Errorf("owner decision = %+v, want all true", d)
	}

	admin := &transfer.Viewer{ID: 99, Roles: []string{models.RoleAdmin}}
	d = Decide(video, admin, nil, false, time.Now())
	if !d.Allowed || !d.IsSubscribed || !d.IsBought {
		t.Errorf("admin decision = %+v, want all true", d)
	}
}

func TestDecideSubscriptionGate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	video := &models.Video{ID: 1, PerformerID: 10}
	viewer := &transfer.Viewer{ID: 20}

	live := &models.Subscription{PerformerID: 10, SubscriberID: 20, ExpiredAt: now.Add(time.Hour)}
	if d := Decide(video, viewer, live, false, now); !d.Allowed || !d.IsSubscribed {
		t.Errorf("live subscription decision = %+v, want allowed", d)
	}

	expired := &models.Subscription{PerformerID: 10, SubscriberID: 20, ExpiredAt: now.Add(-time.Hour)}
	if d := Decide(video, viewer, expired, false, now); d.Allowed || d.IsSubscribed {
		t.Errorf("expired subscription decision = %+v, want denied", d)
	}

	if d := Decide(video, viewer, nil, false, now); d.Allowed {
		t.Errorf("no subscription decision = %+v, want denied", d)
	}
}

func TestDecideSaleGate(t *testing.T) {
	now := time.Now()
	video := &models.Video{ID: 1, PerformerID: 10, IsSale: true}
	viewer := &transfer.Viewer{ID: 20}

	if d := Decide(video, viewer, nil, true, now); !d.Allowed || !d.IsBought {
		t.Errorf("bought decision = %+v, want allowed", d)
	}
	if d := Decide(video, viewer, nil, false, now); d.Allowed || d.IsBought {
		t.Errorf("unbought decision = %+v, want denied", d)
	}

	// A live subscription does not unlock a pay-per-view video.
	live := &models.Subscription{PerformerID: 10, SubscriberID: 20, ExpiredAt: now.Add(time.Hour)}
	if d := Decide(video, viewer, live, false, now); d.Allowed {
		t.Errorf("subscription on sale video = %+v, want denied", d)
	}
}

func TestEmbargoLockedOncePassed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if !EmbargoLocked(&models.Video{IsSchedule: true, ScheduledAt: &past}, now) {
		t.Error("a passed scheduled instant locks the video")
	}
	if EmbargoLocked(&models.Video{IsSchedule: true, ScheduledAt: &future}, now) {
		t.Error("a future scheduled instant does not lock the video")
	}
	if EmbargoLocked(&models.Video{IsSchedule: false, ScheduledAt: &past}, now) {
		t.Error("unscheduled videos are never embargo locked")
	}
}

func TestGetDetailsExpiredSubscriptionStillCountsView(t *testing.T) {
	f := newAccessFixture()
	video := f.seed(&models.Video{PerformerID: 10, Title: "Clip", Slug: "clip", FileID: "main-file"})
	f.subs.add(&models.Subscription{PerformerID: 10, SubscriberID: 20, ExpiredAt: f.now.Add(-time.Hour)})

	viewer := &transfer.Viewer{ID: 20}
	view, err := f.svc.GetDetails(context.Background(), strconv.FormatInt(video.ID, 10), viewer)
	if err != nil {
		t.Fatalf("get details: %v", err)
	}

	if view.IsSubscribed {
		t.Error("expired subscription must report is_subscribed=false")
	}
	if view.URL != "" {
		t.Errorf("url = %q, locked video must not expose the playable rendition", view.URL)
	}
	if got := f.repo.videos[video.ID].ViewCount; got != 1 {
		t.Errorf("view count = %d, locked detail fetch still counts one view", got)
	}
}

func TestGetDetailsEntitledViewerGetsURL(t *testing.T) {
	f := newAccessFixture()
	f.seed(&models.Video{PerformerID: 10, Title: "Clip", Slug: "clip", FileID: "main-file"})
	f.subs.add(&models.Subscription{PerformerID: 10, SubscriberID: 20, ExpiredAt: f.now.Add(time.Hour)})

	view, err := f.svc.GetDetails(context.Background(), "clip", &transfer.Viewer{ID: 20})
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if !view.IsSubscribed {
		t.Error("live subscription must report is_subscribed=true")
	}
	if view.URL == "" {
		t.Error("entitled viewer must receive the playable url")
	}
}

func TestGetDetailsEmbargoDeniesBoughtViewer(t *testing.T) {
	f := newAccessFixture()
	past := f.now.Add(-time.Minute)
	video := f.seed(&models.Video{
		PerformerID: 10, Title: "Clip", Slug: "clip", FileID: "main-file",
		IsSale: true, IsSchedule: true, ScheduledAt: &past,
	})
	f.purchases.add(&models.Purchase{SourceID: 20, TargetID: video.ID, TargetType: models.PurchaseTargetVideo, Status: models.PurchaseStatusSuccess})

	view, err := f.svc.GetDetails(context.Background(), strconv.FormatInt(video.ID, 10), &transfer.Viewer{ID: 20})
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if !view.IsBought {
		t.Error("purchase flag should still be reported")
	}
	if view.URL != "" {
		t.Errorf("url = %q, passed schedule locks playback", view.URL)
	}

	// The owner is exempt from the embargo rule.
	ownerView, err := f.svc.GetDetails(context.Background(), strconv.FormatInt(video.ID, 10), &transfer.Viewer{ID: 10})
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if ownerView.URL == "" {
		t.Error("owner must keep playback through the embargo")
	}
}

func TestGetDetailsUnknownVideo(t *testing.T) {
	f := newAccessFixture()

	_, err := f.svc.GetDetails(context.Background(), "nope", &transfer.Viewer{ID: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnnotateListBulkFlags(t *testing.T) {
	f := newAccessFixture()
	past := f.now.Add(-time.Minute)
	subGated := f.seed(&models.Video{PerformerID: 10, Title: "A", Slug: "a", FileID: "fa"})
	sale := f.seed(&models.Video{PerformerID: 11, Title: "B", Slug: "b", FileID: "fb", IsSale: true})
	embargoed := f.seed(&models.Video{PerformerID: 12, Title: "C", Slug: "c", FileID: "fc", IsSchedule: true, ScheduledAt: &past})

	f.subs.add(&models.Subscription{PerformerID: 10, SubscriberID: 20, ExpiredAt: f.now.Add(time.Hour)})
	f.subs.add(&models.Subscription{PerformerID: 12, SubscriberID: 20, ExpiredAt: f.now.Add(time.Hour)})
	f.purchases.add(&models.Purchase{SourceID: 20, TargetID: sale.ID, TargetType: models.PurchaseTargetVideo, Status: models.PurchaseStatusSuccess})

	videos, err := f.repo.ListActive(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	views, err := f.svc.AnnotateList(context.Background(), videos, &transfer.Viewer{ID: 20})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}

	byID := map[int64]*transfer.VideoView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	if !byID[subGated.ID].IsSubscribed || byID[subGated.ID].URL == "" {
		t.Errorf("subscription-gated item = %+v, want subscribed with url", byID[subGated.ID])
	}
	if !byID[sale.ID].IsBought || byID[sale.ID].URL == "" {
		t.Errorf("sale item = %+v, want bought with url", byID[sale.ID])
	}
	// Listing only annotates; the embargo is not enforced here.
	if byID[embargoed.ID].URL == "" {
		t.Errorf("embargoed item in a listing keeps its annotated url")
	}

	for id, v := range f.repo.videos {
		if v.ViewCount != 0 {
			t.Errorf("video %d view count = %d, listings never count views", id, v.ViewCount)
		}
	}
}

func TestAnnotateListAnonymousDefaults(t *testing.T) {
	f := newAccessFixture()
	f.seed(&models.Video{PerformerID: 10, Title: "A", Slug: "a", FileID: "fa"})

	videos, _ := f.repo.ListActive(context.Background(), 100, 0)
	views, err := f.svc.AnnotateList(context.Background(), videos, nil)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}

	for _, v := range views {
		if v.IsSubscribed || v.IsBought || v.URL != "" {
			t.Errorf("anonymous view = %+v, want all entitlement fields false", v)
		}
	}
}

func TestViewsCarryMediaMetadata(t *testing.T) {
	f := newAccessFixture()
	video := f.seed(&models.Video{PerformerID: 10, Title: "Clip", Slug: "clip", FileID: "main-file"})

	duration := 134.5
	f.media.stored["main-file"] = &models.MediaFile{
		ID:       "main-file",
		OwnerID:  10,
		MimeType: "video/mp4",
		Status:   models.MediaFileStatusReady,
		Duration: &duration,
	}

	view, err := f.svc.GetDetails(context.Background(), "clip", &transfer.Viewer{ID: 10})
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if view.FileStatus != models.MediaFileStatusReady {
		t.Errorf("file status = %q, want ready", view.FileStatus)
	}
	if view.Duration == nil || *view.Duration != duration {
		t.Errorf("duration = %v, want %v", view.Duration, duration)
	}

	videos, _ := f.repo.ListActive(context.Background(), 100, 0)
	views, err := f.svc.AnnotateList(context.Background(), videos, nil)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(views) != 1 || views[0].ID != video.ID {
		t.Fatalf("expected the seeded video, got %+v", views)
	}
	if views[0].Duration == nil || *views[0].Duration != duration {
		t.Errorf("list duration = %v, want %v", views[0].Duration, duration)
	}
}

func TestCheckAuthTaxonomy(t *testing.T) {
	f := newAccessFixture()
	past := f.now.Add(-time.Minute)
	video := f.seed(&models.Video{PerformerID: 10, Title: "Clip", Slug: "clip", FileID: "main-file"})
	embargoed := f.seed(&models.Video{
		PerformerID: 10, Title: "Gated", Slug: "gated", FileID: "gated-file",
		IsSchedule: true, ScheduledAt: &past,
	})

	viewer := &transfer.Viewer{ID: 20}

	if _, err := f.svc.CheckAuth(context.Background(), "", viewer); !errors.Is(err, ErrForbidden) {
		t.Errorf("missing id: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.CheckAuth(context.Background(), "424242", viewer); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.CheckAuth(context.Background(), strconv.FormatInt(video.ID, 10), viewer); !errors.Is(err, ErrForbidden) {
		t.Errorf("unsubscribed viewer: expected ErrForbidden, got %v", err)
	}

	f.subs.add(&models.Subscription{PerformerID: 10, SubscriberID: 20, ExpiredAt: f.now.Add(time.Hour)})
	ok, err := f.svc.CheckAuth(context.Background(), strconv.FormatInt(video.ID, 10), viewer)
	if err != nil || !ok {
		t.Errorf("subscribed viewer: expected authorized, got %v %v", ok, err)
	}

	if _, err := f.svc.CheckAuth(context.Background(), strconv.FormatInt(embargoed.ID, 10), viewer); !errors.Is(err, ErrForbidden) {
		t.Errorf("embargoed video: expected ErrForbidden, got %v", err)
	}

	owner := &transfer.Viewer{ID: 10}
	ok, err = f.svc.CheckAuth(context.Background(), strconv.FormatInt(embargoed.ID, 10), owner)
	if err != nil || !ok {
		t.Errorf("owner on embargoed video: expected authorized, got %v %v", ok, err)
	}
}
