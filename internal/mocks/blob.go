package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/blob"
)

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) UploadProfilePicture(ctx context.Context, data []byte, fileName string) (string, error) {
	args := m.Called(ctx, data, fileName)
	return args.String(0), args.Error(1)
}

func (m *BlobStoreMock) UploadMessagePhoto(ctx context.Context, data []byte, fileName string) (string, error) {
	args := m.Called(ctx, data, fileName)
	return args.String(0), args.Error(1)
}

func (m *BlobStoreMock) UploadMessageVideo(ctx context.Context, data []byte, fileName string) (string, error) {
	args := m.Called(ctx, data, fileName)
	return args.String(0), args.Error(1)
}

func (m *BlobStoreMock) DownloadURL(ctx context.Context, objectPath string) (string, error) {
	args := m.Called(ctx, objectPath)
	return args.String(0), args.Error(1)
}

var _ blob.Store = (*BlobStoreMock)(nil)
