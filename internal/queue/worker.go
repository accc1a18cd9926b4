package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/velora-labs/video-api/internal/models"
)

// Register wires the completion-event handler onto the mux. The
// composition root calls this before starting the asynq server;
// construction itself subscribes to nothing.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeFileProcessed, q.HandleFileProcessedTask)
}

// HandleFileProcessedTask applies one converter completion event.
// Delivery is at least once and may be reordered, so every branch has
// to tolerate replays: a track that is already settled is left alone,
// and an event for a deleted video just releases the orphaned file.
func (q *Queue) HandleFileProcessedTask(ctx context.Context, task *asynq.Task) error {
	var payload FileProcessedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.ApplyFileProcessed(ctx, &payload)
}

func (q *Queue) ApplyFileProcessed(ctx context.Context, payload *FileProcessedPayload) error {
	video, err := q.vr.GetByID(ctx, payload.Meta.VideoID)
	if err != nil {
		return err
	}
	if video == nil {
		// The video was deleted while the conversion ran. Expected
		// race, the file has no owner anymore.
		slog.Info("releasing orphaned file", "file_id", payload.FileID, "video_id", payload.Meta.VideoID)
		if err := q.media.Remove(ctx, payload.FileID); err != nil {
			slog.Info(err.Error())
		}
		return nil
	}

	failed := payload.Status == models.MediaFileStatusError

	fileStatus := models.MediaFileStatusReady
	if failed {
		fileStatus = models.MediaFileStatusError
	}
	if err := q.media.MarkStatus(ctx, payload.FileID, fileStatus); err != nil {
		slog.Info(err.Error())
	}

	switch payload.Meta.Track {
	case models.TrackTeaser:
		// Teaser failures never flip the video status; the primary
		// rendition is still playable.
		settled, err := q.vr.SettleTeaserTrack(ctx, video.ID)
		if err != nil {
			return err
		}
		if !settled {
			slog.Info("teaser track already settled", "video_id", video.ID)
		}
		return nil

	default:
		// Success only clears the processing flag; the status a video
		// carried through conversion stays. Failure overwrites it.
		status := video.Status
		if failed {
			status = models.VideoStatusFileError
		}

		settled, err := q.vr.SettlePrimaryTrack(ctx, video.ID, status)
		if err != nil {
			return err
		}
		if !settled {
			slog.Info("primary track already settled", "video_id", video.ID)
			return nil
		}

		prior := video.Status
		video.Processing = false
		video.Status = status
		if err := q.bus.PublishCountUpdated(ctx, video, prior); err != nil {
			slog.Info(err.Error())
		}
		return nil
	}
}
