package models

import "time"

type Video struct {
	ID               int64      `db:"id" json:"id"`
	PerformerID      int64      `db:"performer_id" json:"performer_id"`
	Title            string     `db:"title" json:"title"`
	Slug             string     `db:"slug" json:"slug"`
	Description      string     `db:"description" json:"description"`
	FileID           string     `db:"file_id" json:"file_id"`
	TeaserID         *string    `db:"teaser_id" json:"teaser_id"`
	ThumbnailID      *string    `db:"thumbnail_id" json:"thumbnail_id"`
	Processing       bool       `db:"processing" json:"processing"`
	TeaserProcessing bool       `db:"teaser_processing" json:"teaser_processing"`
	Status           string     `db:"status" json:"status"`
	IsSale           bool       `db:"is_sale" json:"is_sale"`
	Price            float64    `db:"price" json:"price"`
	IsSchedule       bool       `db:"is_schedule" json:"is_schedule"`
	ScheduledAt      *time.Time `db:"scheduled_at" json:"scheduled_at"`
	Tags             []string   `db:"tags" json:"tags"`
	ParticipantIDs   []int64    `db:"participant_ids" json:"participant_ids"`
	ViewCount        int64      `db:"view_count" json:"view_count"`
	CommentCount     int64      `db:"comment_count" json:"comment_count"`
	LikeCount        int64      `db:"like_count" json:"like_count"`
	BookmarkCount    int64      `db:"bookmark_count" json:"bookmark_count"`
	CreatedBy        int64      `db:"created_by" json:"created_by"`
	UpdatedBy        int64      `db:"updated_by" json:"updated_by"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	VideoStatusActive    = "active"
	VideoStatusInactive  = "inactive"
	VideoStatusPending   = "pending"
	VideoStatusFileError = "file-error"
)

const (
	FileKindTeaser    = "teaser"
	FileKindThumbnail = "thumbnail"
)

// Tracks are the two independently transcoded files on a video.
const (
	TrackPrimary = "primary"
	TrackTeaser  = "teaser"
)

// Counter columns mutated only through increments.
const (
	CounterViews     = "view_count"
	CounterComments  = "comment_count"
	CounterLikes     = "like_count"
	CounterBookmarks = "bookmark_count"
)
