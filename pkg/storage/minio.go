package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

// Minio stores blobs as objects in an S3-compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinio creates a client for cfg. No network calls are made until Start.
func NewMinio(cfg *MinioConfig, logger *slog.Logger) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Minio{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("system", "storage", "driver", DriverMinio),
	}, nil
}

// Start ensures the bucket exists once the lifecycle starts.
func (m *Minio) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting storage system", "bucket", m.bucket)

	lc.OnStartup(func() {
		ctx := lc.Context()
		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.logger.Error("bucket check failed", "error", err)
			return
		}
		if exists {
			return
		}
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			m.logger.Error("bucket creation failed", "error", err)
			return
		}
		m.logger.Info("bucket created", "bucket", m.bucket)
	})

	return nil
}

func (m *Minio) Store(ctx context.Context, key string, data []byte) error {
	name, err := objectName(key)
	if err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return mapMinioError(err, "put object")
	}
	return nil
}

func (m *Minio) Retrieve(ctx context.Context, key string) ([]byte, error) {
	name, err := objectName(key)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioError(err, "get object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapMinioError(err, "read object")
	}
	return data, nil
}

func (m *Minio) Delete(ctx context.Context, key string) error {
	name, err := objectName(key)
	if err != nil {
		return err
	}

	if err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		if mapMinioError(err, "") == ErrNotFound {
			return nil
		}
		return mapMinioError(err, "remove object")
	}
	return nil
}

func (m *Minio) Validate(ctx context.Context, key string) (bool, error) {
	name, err := objectName(key)
	if err != nil {
		return false, err
	}

	if _, err := m.client.StatObject(ctx, m.bucket, name, minio.StatObjectOptions{}); err != nil {
		mapped := mapMinioError(err, "stat object")
		if mapped == ErrNotFound {
			return false, nil
		}
		return false, mapped
	}
	return true, nil
}

func objectName(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func mapMinioError(err error, op string) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.Code == "NoSuchKey":
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden, resp.Code == "AccessDenied":
		return ErrPermissionDenied
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
