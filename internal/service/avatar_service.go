package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	avatarMaxBytes   = 2 * 1024 * 1024
	avatarURLTTL     = 15 * time.Minute
	avatarKeyPrefix  = "avatars"
	sniffProbeLength = 512
)

var (
	ErrAvatarTooLarge    = errors.New("avatar exceeds 2MB limit")
	ErrAvatarUnsupported = errors.New("avatar must be a JPEG or PNG image")
	ErrAvatarStorage     = errors.New("avatar storage unavailable")

	avatarImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	}
)

// AvatarStore persists user profile images in object storage. The
// returned keys are opaque and resolved to URLs on demand.
type AvatarStore interface {
	Store(ctx context.Context, userID uuid.UUID, body io.Reader, size int64) (string, error)
	Remove(ctx context.Context, objectKey string) error
	PresignURL(ctx context.Context, objectKey string) (string, error)
}

// MinioAvatarStore keeps avatars in an S3-compatible bucket.
type MinioAvatarStore struct {
	client *minio.Client
	bucket string
}

func NewMinioAvatarStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioAvatarStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	store := &MinioAvatarStore{client: client, bucket: bucket}
	if err := store.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MinioAvatarStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket: %v", ErrAvatarStorage, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrAvatarStorage, err)
		}
	}
	return nil
}

// Store sniffs the content type from the payload rather than trusting
// client headers, then writes the object under a fresh random key so a
// re-upload never overwrites the previous avatar mid-download.
func (s *MinioAvatarStore) Store(ctx context.Context, userID uuid.UUID, body io.Reader, size int64) (string, error) {
	if size > avatarMaxBytes {
		return "", ErrAvatarTooLarge
	}

	probe := make([]byte, sniffProbeLength)
	n, err := io.ReadFull(body, probe)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("%w: read payload: %v", ErrAvatarStorage, err)
	}
	probe = probe[:n]

	contentType, ok := sniffImageType(probe)
	if !ok {
		return "", ErrAvatarUnsupported
	}

	objectKey := fmt.Sprintf("%s/%s/%s%s", avatarKeyPrefix, userID, uuid.NewString(), avatarImageTypes[contentType])
	payload := io.MultiReader(bytes.NewReader(probe), body)

	_, err = s.client.PutObject(ctx, s.bucket, objectKey, payload, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"Owner":       userID.String(),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %v", ErrAvatarStorage, err)
	}
	return objectKey, nil
}

func (s *MinioAvatarStore) Remove(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove object: %v", ErrAvatarStorage, err)
	}
	return nil
}

func (s *MinioAvatarStore) PresignURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrAvatarStorage)
	}
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, avatarURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: presign: %v", ErrAvatarStorage, err)
	}
	return signed.String(), nil
}

// sniffImageType inspects magic bytes for the two accepted formats.
func sniffImageType(probe []byte) (string, bool) {
	switch {
	case len(probe) >= 8 && bytes.HasPrefix(probe, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png", true
	case len(probe) >= 3 && bytes.HasPrefix(probe, []byte("\xff\xd8\xff")):
		return "image/jpeg", true
	default:
		return "", false
	}
}
