package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
	cfg "github.com/velora-labs/video-api/configs"
	"github.com/velora-labs/video-api/internal/models"
	"github.com/velora-labs/video-api/internal/repository"
)

// Transcoder enqueues a conversion job for a stored file. Implemented by
// the queue package over asynq; declared here so services stay decoupled
// from the transport.
type Transcoder interface {
	EnqueueTranscode(ctx context.Context, fileID string, videoID int64, track string) error
}

// EventBus publishes lifecycle events for downstream aggregators
// (comment/reaction counters, search index). Implemented over redis
// pub/sub in the queue package.
type EventBus interface {
	PublishCountUpdated(ctx context.Context, video *models.Video, oldStatus string) error
	PublishVideosDeleted(ctx context.Context, video *models.Video) error
}

// MediaStore owns uploaded binaries and their metadata rows. Videos hold
// weak references: removing a video never cascades through here
// automatically, callers release files explicitly.
type MediaStore interface {
	Store(ctx context.Context, ownerID int64, data []byte, mimeType string) (string, error)
	Remove(ctx context.Context, fileID string) error
	FindByID(ctx context.Context, fileID string) (*models.MediaFile, bool, error)
	FindByIDs(ctx context.Context, fileIDs []string) ([]*models.MediaFile, error)
	AddRef(ctx context.Context, fileID string, itemID int64, itemType string) error
	MarkStatus(ctx context.Context, fileID, status string) error
	RenderURL(fileID string, canView bool) string
}

type s3MediaStore struct {
	config cfg.Config
	mf     repository.MediaFileRepository
}

func NewS3MediaStore(config cfg.Config, mf repository.MediaFileRepository) MediaStore {
	return &s3MediaStore{config: config, mf: mf}
}

func (s *s3MediaStore) client() *s3.Client {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.config.S3.AccessKey, s.config.S3.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Error(err.Error())
		return nil
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.config.S3.AccountID))
	})
}

func (s *s3MediaStore) Store(ctx context.Context, ownerID int64, data []byte, mimeType string) (string, error) {
	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	}

	client := s.client()
	if client == nil {
		return "", fmt.Errorf("s3 client unavailable")
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	mf := &models.MediaFile{
		ID:       key,
		OwnerID:  ownerID,
		MimeType: mimeType,
		FileSize: int64(len(data)),
		Status:   models.MediaFileStatusQueued,
	}
	if err := s.mf.Create(ctx, mf); err != nil {
		return "", err
	}

	return key, nil
}

func (s *s3MediaStore) Remove(ctx context.Context, fileID string) error {
	client := s.client()
	if client == nil {
		return fmt.Errorf("s3 client unavailable")
	}

	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.S3.BucketName),
		Key:    aws.String(fileID),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return s.mf.Remove(ctx, fileID)
}

func (s *s3MediaStore) FindByID(ctx context.Context, fileID string) (*models.MediaFile, bool, error) {
	return s.mf.GetByID(ctx, fileID)
}

func (s *s3MediaStore) FindByIDs(ctx context.Context, fileIDs []string) ([]*models.MediaFile, error) {
	return s.mf.GetByIDs(ctx, fileIDs)
}

func (s *s3MediaStore) AddRef(ctx context.Context, fileID string, itemID int64, itemType string) error {
	return s.mf.AddRef(ctx, fileID, itemID, itemType)
}

func (s *s3MediaStore) MarkStatus(ctx context.Context, fileID, status string) error {
	return s.mf.UpdateStatus(ctx, fileID, status)
}

// RenderURL builds the public URL of a file. A viewer without
// entitlement gets an empty URL; the surrounding metadata stays visible.
func (s *s3MediaStore) RenderURL(fileID string, canView bool) string {
	if fileID == "" || !canView {
		return ""
	}
	return fmt.Sprintf("%s/%s", s.config.S3.PublicBaseURL, fileID)
}
