package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/velora-labs/video-api/internal/models"
)

type SubscriptionRepository interface {
	FindBySubscriber(ctx context.Context, performerID, subscriberID int64) (*models.Subscription, bool, error)
	ListBySubscriber(ctx context.Context, subscriberID int64, performerIDs []int64, notExpired bool) ([]*models.Subscription, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindBySubscriber(ctx context.Context, performerID, subscriberID int64) (*models.Subscription, bool, error) {
	query := `
		SELECT id, performer_id, subscriber_id, expired_at, used_free_trial, status, created_at, updated_at
		FROM subscriptions
		WHERE performer_id = $1 AND subscriber_id = $2
	`

	var s models.Subscription
	err := r.db.QueryRowContext(ctx, query, performerID, subscriberID).Scan(
		&s.ID, &s.PerformerID, &s.SubscriberID, &s.ExpiredAt, &s.UsedFreeTrial, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &s, true, nil
}

func (r *subscriptionRepository) ListBySubscriber(ctx context.Context, subscriberID int64, performerIDs []int64, notExpired bool) ([]*models.Subscription, error) {
	query := `
		SELECT id, performer_id, subscriber_id, expired_at, used_free_trial, status, created_at, updated_at
		FROM subscriptions
		WHERE subscriber_id = $1 AND performer_id = ANY($2)
	`
	if notExpired {
		query += ` AND expired_at > NOW()`
	}

	rows, err := r.db.QueryContext(ctx, query, subscriberID, pq.Array(performerIDs))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var subscriptions []*models.Subscription
	for rows.Next() {
		var s models.Subscription
		err := rows.Scan(&s.ID, &s.PerformerID, &s.SubscriberID, &s.ExpiredAt, &s.UsedFreeTrial, &s.Status, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		subscriptions = append(subscriptions, &s)
	}
	return subscriptions, rows.Err()
}
