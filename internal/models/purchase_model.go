package models

import "time"

type Purchase struct {
	ID         int64     `db:"id" json:"id"`
	SourceID   int64     `db:"source_id" json:"source_id"`
	TargetID   int64     `db:"target_id" json:"target_id"`
	TargetType string    `db:"target_type" json:"target_type"`
	Status     string    `db:"status" json:"status"`
	Price      float64   `db:"price" json:"price"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

const (
	PurchaseStatusSuccess = "success"
	PurchaseStatusFailed  = "failed"

	PurchaseTargetVideo = "video"
)
