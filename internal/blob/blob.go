// Package blob stores media referenced by messages and profiles. Uploaded
// media is addressed by a download URL, which becomes the flat content of
// photo and video messages.
package blob

import (
	"context"
	"errors"
)

var (
	// ErrUploadFailed is returned when the blob store rejects an upload.
	ErrUploadFailed = errors.New("blob: upload failed")
	// ErrDownloadURLUnavailable is returned when no download URL can be
	// produced for a stored object.
	ErrDownloadURLUnavailable = errors.New("blob: download url unavailable")
)

// Object path prefixes, mirroring the persisted bucket layout.
const (
	profilePicturePrefix = "image/"
	messageImagePrefix   = "message_images/"
	messageVideoPrefix   = "message_videos/"
)

// Store uploads media and resolves download URLs. Uploads return the
// object's download URL; failures surface once, there is no retry.
type Store interface {
	UploadProfilePicture(ctx context.Context, data []byte, fileName string) (string, error)
	UploadMessagePhoto(ctx context.Context, data []byte, fileName string) (string, error)
	UploadMessageVideo(ctx context.Context, data []byte, fileName string) (string, error)
	DownloadURL(ctx context.Context, objectPath string) (string, error)
}
