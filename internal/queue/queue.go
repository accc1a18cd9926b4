package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Transcoder adapts the asynq client to the service-level Transcoder
// interface.
type Transcoder struct {
	client *asynq.Client
}

func NewTranscoder(client *asynq.Client) *Transcoder {
	return &Transcoder{client: client}
}

func (t *Transcoder) EnqueueTranscode(ctx context.Context, fileID string, videoID int64, track string) error {
	payload := TranscodeFilePayload{
		FileID: fileID,
		Meta:   TranscodeMeta{VideoID: videoID, Track: track},
	}

	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeTranscodeFile, taskPayload)

	_, err = t.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	slog.Info("transcode job enqueued", "file_id", fileID, "video_id", videoID, "track", track)
	return nil
}
