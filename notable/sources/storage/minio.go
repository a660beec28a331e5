package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"notable/notable/config"
	"notable/notable/sources/models"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

// Snapshot is the archived form of one user's notes.
type Snapshot struct {
	UserID     string        `json:"user_id"`
	ExportedAt time.Time     `json:"exported_at"`
	Count      int           `json:"count"`
	Notes      []models.Note `json:"notes"`
}

func NewSnapshot(userID string, notes []models.Note) Snapshot {
	if notes == nil {
		notes = []models.Note{}
	}
	return Snapshot{UserID: userID, ExportedAt: time.Now().UTC(), Count: len(notes), Notes: notes}
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOSecure,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		logging.AppLogger.Info("created archive bucket", zap.String("bucket", bucket))
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// SnapshotKey is archives/<user>/<utc timestamp>.json.
func SnapshotKey(s Snapshot) string {
	return path.Join("archives", s.UserID, s.ExportedAt.UTC().Format("20060102T150405.000Z")+".json")
}

func (m *MinIOClient) UploadSnapshot(ctx context.Context, s Snapshot) (string, error) {
	defer logging.LogDuration(ctx, "minio_upload_snapshot")()
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	key := SnapshotKey(s)
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// GetSnapshot reads back one archive of userID by its file name.
func (m *MinIOClient) GetSnapshot(ctx context.Context, userID, name string) (*Snapshot, error) {
	defer logging.LogDuration(ctx, "minio_get_snapshot")()
	key, err := SnapshotPath(userID, name)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, apperrors.NotFound("storage.GetSnapshot", "archive not found")
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &snap, nil
}

// ListSnapshots returns the archive file names of userID, oldest first.
func (m *MinIOClient) ListSnapshots(ctx context.Context, userID string) ([]string, error) {
	defer logging.LogDuration(ctx, "minio_list_snapshots")()
	names := []string{}
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: path.Join("archives", userID) + "/"}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, path.Base(obj.Key))
	}
	sort.Strings(names)
	return names, nil
}

// SnapshotPath resolves an archive file name inside userID's prefix.
func SnapshotPath(userID, name string) (string, error) {
	if userID == "" || name == "" || path.Base(name) != name || !strings.HasSuffix(name, ".json") {
		return "", apperrors.Validation("storage.SnapshotPath", "invalid archive name")
	}
	return path.Join("archives", userID, name), nil
}
