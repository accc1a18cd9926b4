package models

import (
	"time"
)

type Subscription struct {
	ID            int64     `db:"id" json:"id"`
	PerformerID   int64     `db:"performer_id" json:"performer_id"`
	SubscriberID  int64     `db:"subscriber_id" json:"subscriber_id"`
	ExpiredAt     time.Time `db:"expired_at" json:"expired_at"`
	UsedFreeTrial bool      `db:"used_free_trial" json:"used_free_trial"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
