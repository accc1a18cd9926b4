package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/velora-labs/video-api/internal/models"
	"github.com/velora-labs/video-api/internal/repository"
	"github.com/velora-labs/video-api/internal/service"
)

// TranscodeRequeueJob re-enqueues conversion jobs for videos whose
// tracks have been stuck processing past the cutoff. Completion events
// are idempotent, so requeueing a job whose original is still in
// flight is harmless.
type TranscodeRequeueJob struct {
	vr         repository.VideoRepository
	transcoder service.Transcoder
	after      time.Duration
}

func NewTranscodeRequeueJob(vr repository.VideoRepository, transcoder service.Transcoder, after time.Duration) *TranscodeRequeueJob {
	return &TranscodeRequeueJob{
		vr:         vr,
		transcoder: transcoder,
		after:      after,
	}
}

func (c *TranscodeRequeueJob) Requeue() {
	ctx := context.Background()

	cutoff := time.Now().Add(-c.after)
	videos, err := c.vr.ListStuckProcessing(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, video := range videos {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(video *models.Video) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if video.Processing {
				if err := c.transcoder.EnqueueTranscode(ctx, video.FileID, video.ID, models.TrackPrimary); err != nil {
					slog.Info(err.Error())
				}
			}
			if video.TeaserProcessing && video.TeaserID != nil {
				if err := c.transcoder.EnqueueTranscode(ctx, *video.TeaserID, video.ID, models.TrackTeaser); err != nil {
					slog.Info(err.Error())
				}
			}
		}(video)
	}

	wg.Wait()
}
