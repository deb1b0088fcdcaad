package blob

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store for MinIO/S3 compatible storage.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinioStore connects to MinIO and ensures the media bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket, urlExpiry: 7 * 24 * time.Hour}, nil
}

// UploadProfilePicture stores a profile image under image/ and returns its
// download URL.
func (m *MinioStore) UploadProfilePicture(ctx context.Context, data []byte, fileName string) (string, error) {
	return m.upload(ctx, profilePicturePrefix+fileName, data, "image/png")
}

// UploadMessagePhoto stores an image sent in a conversation and returns its
// download URL.
func (m *MinioStore) UploadMessagePhoto(ctx context.Context, data []byte, fileName string) (string, error) {
	return m.upload(ctx, messageImagePrefix+fileName, data, "image/png")
}

// UploadMessageVideo stores a video sent in a conversation and returns its
// download URL.
func (m *MinioStore) UploadMessageVideo(ctx context.Context, data []byte, fileName string) (string, error) {
	return m.upload(ctx, messageVideoPrefix+fileName, data, "video/quicktime")
}

// DownloadURL resolves a presigned GET URL for a stored object.
func (m *MinioStore) DownloadURL(ctx context.Context, objectPath string) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectPath, m.urlExpiry, nil)
	if err != nil {
		log.Printf("blob download url failed for %s: %v", objectPath, err)
		return "", fmt.Errorf("%w: %s", ErrDownloadURLUnavailable, objectPath)
	}
	return url.String(), nil
}

func (m *MinioStore) upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, objectPath, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Printf("blob upload failed for %s: %v", objectPath, err)
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, objectPath)
	}
	return m.DownloadURL(ctx, objectPath)
}
