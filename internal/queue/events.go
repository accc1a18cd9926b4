package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/velora-labs/video-api/internal/models"
)

// CountUpdatedEvent is broadcast on every lifecycle change so that
// aggregators can reconcile their deltas. OldStatus is empty on create;
// a video that was never active never contributed to a public count and
// listeners use the pair to decide whether to decrement.
type CountUpdatedEvent struct {
	Video     *models.Video `json:"video"`
	OldStatus string        `json:"old_status"`
}

// VideosDeletedEvent carries the full prior snapshot for cleanup
// listeners (comment and reaction counters, search index).
type VideosDeletedEvent struct {
	Video *models.Video `json:"video"`
}

// RedisEventBus implements service.EventBus over redis pub/sub
// channels.
type RedisEventBus struct {
	rdb                  *redis.Client
	countUpdatedChannel  string
	videosDeletedChannel string
}

func NewRedisEventBus(rdb *redis.Client, countUpdatedChannel, videosDeletedChannel string) *RedisEventBus {
	return &RedisEventBus{
		rdb:                  rdb,
		countUpdatedChannel:  countUpdatedChannel,
		videosDeletedChannel: videosDeletedChannel,
	}
}

func (b *RedisEventBus) PublishCountUpdated(ctx context.Context, video *models.Video, oldStatus string) error {
	payload, err := json.Marshal(CountUpdatedEvent{Video: video, OldStatus: oldStatus})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.countUpdatedChannel, payload).Err()
}

func (b *RedisEventBus) PublishVideosDeleted(ctx context.Context, video *models.Video) error {
	payload, err := json.Marshal(VideosDeletedEvent{Video: video})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.videosDeletedChannel, payload).Err()
}
