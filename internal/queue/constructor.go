package queue

import (
	"github.com/velora-labs/video-api/internal/repository"
	"github.com/velora-labs/video-api/internal/service"
)

// Task channels. transcode:file is consumed by the external converter
// fleet; transcode:file-processed is its completion event, consumed
// here.
const (
	TaskTypeTranscodeFile = "transcode:file"
	TaskTypeFileProcessed = "transcode:file-processed"
)

type TranscodeFilePayload struct {
	FileID string        `json:"file_id"`
	Meta   TranscodeMeta `json:"meta"`
}

type TranscodeMeta struct {
	VideoID int64  `json:"video_id"`
	Track   string `json:"track"`
}

// FileProcessedPayload is what the converter publishes when a job
// finishes, successfully or not. Status carries the media-file status
// ("ready" or "error").
type FileProcessedPayload struct {
	FileID string        `json:"file_id"`
	Status string        `json:"status"`
	Meta   TranscodeMeta `json:"meta"`
}

type Queue struct {
	vr    repository.VideoRepository
	media service.MediaStore
	bus   service.EventBus
}

func NewQueue(
	vr repository.VideoRepository,
	media service.MediaStore,
	bus service.EventBus) *Queue {
	return &Queue{
		vr:    vr,
		media: media,
		bus:   bus,
	}
}
