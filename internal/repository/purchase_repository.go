package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/velora-labs/video-api/internal/models"
)

type PurchaseRepository interface {
	CheckSuccess(ctx context.Context, sourceID, targetID int64, targetType string) (bool, error)
	ListByTargets(ctx context.Context, sourceID int64, targetIDs []int64, targetType, status string) ([]*models.Purchase, error)
}

type purchaseRepository struct {
	db *sql.DB
}

func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) CheckSuccess(ctx context.Context, sourceID, targetID int64, targetType string) (bool, error) {
	query := `
		SELECT 1 FROM purchases
		WHERE source_id = $1 AND target_id = $2 AND target_type = $3 AND status = $4
	`

	var result int
	err := r.db.QueryRowContext(ctx, query, sourceID, targetID, targetType, models.PurchaseStatusSuccess).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *purchaseRepository) ListByTargets(ctx context.Context, sourceID int64, targetIDs []int64, targetType, status string) ([]*models.Purchase, error) {
	query := `
		SELECT id, source_id, target_id, target_type, status, price, created_at
		FROM purchases
		WHERE source_id = $1 AND target_id = ANY($2) AND target_type = $3 AND status = $4
	`

	rows, err := r.db.QueryContext(ctx, query, sourceID, pq.Array(targetIDs), targetType, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		var p models.Purchase
		err := rows.Scan(&p.ID, &p.SourceID, &p.TargetID, &p.TargetType, &p.Status, &p.Price, &p.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		purchases = append(purchases, &p)
	}
	return purchases, rows.Err()
}
