package models

import "time"

type MediaFile struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	Status    string    `db:"status" json:"status"`
	Duration  *float64  `db:"duration" json:"duration"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	MediaFileStatusQueued = "queued"
	MediaFileStatusReady  = "ready"
	MediaFileStatusError  = "error"
)

type MediaRef struct {
	FileID    string    `db:"file_id"`
	ItemID    int64     `db:"item_id"`
	ItemType  string    `db:"item_type"`
	CreatedAt time.Time `db:"created_at"`
}
