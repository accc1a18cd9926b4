package job

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/velora-labs/video-api/internal/models"
)

type stuckListRepo struct {
	stuck []*models.Video
}

func (r *stuckListRepo) Create(_ context.Context, _ *sql.Tx, _ *models.Video) (int64, error) {
	return 0, nil
}

func (r *stuckListRepo) GetByID(_ context.Context, _ int64) (*models.Video, error) {
	return nil, nil
}

func (r *stuckListRepo) GetBySlug(_ context.Context, _ string) (*models.Video, error) {
	return nil, nil
}

func (r *stuckListRepo) SlugExists(_ context.Context, _ string, _ int64) (bool, error) {
	return false, nil
}

func (r *stuckListRepo) UpdateInfo(_ context.Context, _ *models.Video) error { return nil }

func (r *stuckListRepo) Remove(_ context.Context, _ int64) error { return nil }

func (r *stuckListRepo) ListByPerformer(_ context.Context, _ int64) ([]*models.Video, error) {
	return nil, nil
}

func (r *stuckListRepo) ListActive(_ context.Context, _, _ int) ([]*models.Video, error) {
	return nil, nil
}

func (r *stuckListRepo) ListStuckProcessing(_ context.Context, _ time.Time) ([]*models.Video, error) {
	return r.stuck, nil
}

func (r *stuckListRepo) ClearFileRef(_ context.Context, _ int64, _ string) error { return nil }

func (r *stuckListRepo) SettlePrimaryTrack(_ context.Context, _ int64, _ string) (bool, error) {
	return false, nil
}

func (r *stuckListRepo) SettleTeaserTrack(_ context.Context, _ int64) (bool, error) {
	return false, nil
}

func (r *stuckListRepo) IncrementCounter(_ context.Context, _ int64, _ string, _ int64) error {
	return nil
}

type enqueuedTrack struct {
	FileID  string
	VideoID int64
	Track   string
}

type trackRecorder struct {
	mu   sync.Mutex
	jobs []enqueuedTrack
}

func (t *trackRecorder) EnqueueTranscode(_ context.Context, fileID string, videoID int64, track string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs = append(t.jobs, enqueuedTrack{FileID: fileID, VideoID: videoID, Track: track})
	return nil
}

func TestRequeueEnqueuesPerStuckTrack(t *testing.T) {
	teaser := "teaser-2"
	repo := &stuckListRepo{stuck: []*models.Video{
		{ID: 1, FileID: "file-1", Processing: true},
		{ID: 2, FileID: "file-2", TeaserID: &teaser, TeaserProcessing: true},
		{ID: 3, FileID: "file-3", Processing: true, TeaserProcessing: true},
	}}
	recorder := &trackRecorder{}

	NewTranscodeRequeueJob(repo, recorder, time.Hour).Requeue()

	primary := map[int64]bool{}
	teasers := map[int64]bool{}
	for _, j := range recorder.jobs {
		switch j.Track {
		case models.TrackPrimary:
			primary[j.VideoID] = true
		case models.TrackTeaser:
			teasers[j.VideoID] = true
		}
	}

	if !primary[1] || !primary[3] {
		t.Errorf("stuck primary tracks not requeued, jobs = %+v", recorder.jobs)
	}
	if !teasers[2] {
		t.Errorf("stuck teaser track not requeued, jobs = %+v", recorder.jobs)
	}
	if primary[2] {
		t.Errorf("video 2 has no stuck primary track, jobs = %+v", recorder.jobs)
	}
	// Video 3's teaser flag is set but it carries no teaser file id.
	if teasers[3] {
		t.Errorf("teaser requeue without a file id, jobs = %+v", recorder.jobs)
	}
	if len(recorder.jobs) != 3 {
		t.Errorf("expected 3 requeued tracks, got %+v", recorder.jobs)
	}
}
