package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/velora-labs/video-api/internal/models"
)

type MediaFileRepository interface {
	Create(ctx context.Context, mf *models.MediaFile) error
	GetByID(ctx context.Context, id string) (*models.MediaFile, bool, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.MediaFile, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Remove(ctx context.Context, id string) error
	AddRef(ctx context.Context, fileID string, itemID int64, itemType string) error
}

type mediaFileRepository struct {
	db *sql.DB
}

func NewMediaFileRepository(db *sql.DB) MediaFileRepository {
	return &mediaFileRepository{db: db}
}

func (r *mediaFileRepository) Create(ctx context.Context, mf *models.MediaFile) error {
	query := `
		INSERT INTO media_files (id, owner_id, mime_type, file_size, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, mf.ID, mf.OwnerID, mf.MimeType, mf.FileSize, mf.Status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaFileRepository) GetByID(ctx context.Context, id string) (*models.MediaFile, bool, error) {
	query := `
		SELECT id, owner_id, mime_type, file_size, status, duration, created_at
		FROM media_files
		WHERE id = $1
	`

	var mf models.MediaFile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&mf.ID, &mf.OwnerID, &mf.MimeType, &mf.FileSize, &mf.Status, &mf.Duration, &mf.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &mf, true, nil
}

func (r *mediaFileRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.MediaFile, error) {
	query := `
		SELECT id, owner_id, mime_type, file_size, status, duration, created_at
		FROM media_files
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var files []*models.MediaFile
	for rows.Next() {
		var mf models.MediaFile
		err := rows.Scan(&mf.ID, &mf.OwnerID, &mf.MimeType, &mf.FileSize, &mf.Status, &mf.Duration, &mf.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		files = append(files, &mf)
	}
	return files, rows.Err()
}

func (r *mediaFileRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE media_files SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaFileRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM media_files WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaFileRepository) AddRef(ctx context.Context, fileID string, itemID int64, itemType string) error {
	query := `
		INSERT INTO media_refs (file_id, item_id, item_type)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, fileID, itemID, itemType)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
