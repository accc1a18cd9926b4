package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/velora-labs/video-api/internal/models"
)

type VideoRepository interface {
	Create(ctx context.Context, tx *sql.Tx, video *models.Video) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Video, error)
	GetBySlug(ctx context.Context, slug string) (*models.Video, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	UpdateInfo(ctx context.Context, video *models.Video) error
	Remove(ctx context.Context, id int64) error
	ListByPerformer(ctx context.Context, performerID int64) ([]*models.Video, error)
	ListActive(ctx context.Context, limit, offset int) ([]*models.Video, error)
	ListStuckProcessing(ctx context.Context, olderThan time.Time) ([]*models.Video, error)
	ClearFileRef(ctx context.Context, id int64, kind string) error
	SettlePrimaryTrack(ctx context.Context, id int64, status string) (bool, error)
	SettleTeaserTrack(ctx context.Context, id int64) (bool, error)
	IncrementCounter(ctx context.Context, id int64, column string, delta int64) error
}

type videoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) VideoRepository {
	return &videoRepository{db: db}
}

const videoColumns = `id, performer_id, title, slug, description, file_id, teaser_id, thumbnail_id,
	processing, teaser_processing, status, is_sale, price, is_schedule, scheduled_at,
	tags, participant_ids, view_count, comment_count, like_count, bookmark_count,
	created_by, updated_by, created_at, updated_at`

func scanVideo(row interface{ Scan(...any) error }) (*models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.PerformerID, &v.Title, &v.Slug, &v.Description, &v.FileID, &v.TeaserID, &v.ThumbnailID,
		&v.Processing, &v.TeaserProcessing, &v.Status, &v.IsSale, &v.Price, &v.IsSchedule, &v.ScheduledAt,
		pq.Array(&v.Tags), pq.Array(&v.ParticipantIDs), &v.ViewCount, &v.CommentCount, &v.LikeCount, &v.BookmarkCount,
		&v.CreatedBy, &v.UpdatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoRepository) Create(ctx context.Context, tx *sql.Tx, video *models.Video) (int64, error) {
	query := `
		INSERT INTO videos (performer_id, title, slug, description, file_id, teaser_id, thumbnail_id,
			processing, teaser_processing, status, is_sale, price, is_schedule, scheduled_at,
			tags, participant_ids, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`

	args := []any{
		video.PerformerID, video.Title, video.Slug, video.Description, video.FileID, video.TeaserID, video.ThumbnailID,
		video.Processing, video.TeaserProcessing, video.Status, video.IsSale, video.Price, video.IsSchedule, video.ScheduledAt,
		pq.Array(video.Tags), pq.Array(video.ParticipantIDs), video.CreatedBy, video.UpdatedBy,
	}

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *videoRepository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	video, err := scanVideo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return video, nil
}

func (r *videoRepository) GetBySlug(ctx context.Context, slug string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE slug = $1`
	video, err := scanVideo(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return video, nil
}

func (r *videoRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	query := `SELECT 1 FROM videos WHERE slug = $1 AND id <> $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *videoRepository) UpdateInfo(ctx context.Context, video *models.Video) error {
	query := `
		UPDATE videos
		SET title = $1,
			slug = $2,
			description = $3,
			file_id = $4,
			teaser_id = $5,
			thumbnail_id = $6,
			processing = $7,
			teaser_processing = $8,
			status = $9,
			is_sale = $10,
			price = $11,
			is_schedule = $12,
			scheduled_at = $13,
			tags = $14,
			participant_ids = $15,
			updated_by = $16,
			updated_at = $17
		WHERE id = $18
	`
	_, err := r.db.ExecContext(ctx, query,
		video.Title, video.Slug, video.Description, video.FileID, video.TeaserID, video.ThumbnailID,
		video.Processing, video.TeaserProcessing, video.Status, video.IsSale, video.Price,
		video.IsSchedule, video.ScheduledAt, pq.Array(video.Tags), pq.Array(video.ParticipantIDs),
		video.UpdatedBy, time.Now(), video.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *videoRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM videos WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *videoRepository) ListByPerformer(ctx context.Context, performerID int64) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE performer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, performerID)
}

func (r *videoRepository) ListActive(ctx context.Context, limit, offset int) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, models.VideoStatusActive, limit, offset)
}

func (r *videoRepository) ListStuckProcessing(ctx context.Context, olderThan time.Time) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE (processing = true OR teaser_processing = true) AND updated_at < $1`
	return r.list(ctx, query, olderThan)
}

func (r *videoRepository) list(ctx context.Context, query string, args ...any) ([]*models.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

func (r *videoRepository) ClearFileRef(ctx context.Context, id int64, kind string) error {
	var query string
	switch kind {
	case models.FileKindTeaser:
		query = `UPDATE videos SET teaser_id = NULL, teaser_processing = false, updated_at = $1 WHERE id = $2`
	case models.FileKindThumbnail:
		query = `UPDATE videos SET thumbnail_id = NULL, updated_at = $1 WHERE id = $2`
	default:
		return sql.ErrNoRows
	}

	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SettlePrimaryTrack clears the processing flag and writes the outcome
// status in one statement. The processing guard makes redelivered
// completion events a no-op; the returned bool reports whether this call
// was the one that settled the track.
func (r *videoRepository) SettlePrimaryTrack(ctx context.Context, id int64, status string) (bool, error) {
	query := `
		UPDATE videos
		SET processing = false,
			status = $1,
			updated_at = $2
		WHERE id = $3 AND processing = true
	`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *videoRepository) SettleTeaserTrack(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE videos
		SET teaser_processing = false,
			updated_at = $1
		WHERE id = $2 AND teaser_processing = true
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// IncrementCounter adjusts one counter column in place. Unknown ids
// match zero rows, which is deliberately not an error: counter events
// may arrive after the video was deleted.
func (r *videoRepository) IncrementCounter(ctx context.Context, id int64, column string, delta int64) error {
	var query string
	switch column {
	case models.CounterViews, models.CounterComments, models.CounterLikes, models.CounterBookmarks:
		query = `UPDATE videos SET ` + column + ` = GREATEST(` + column + ` + $1, 0) WHERE id = $2`
	default:
		return sql.ErrNoRows
	}

	_, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
