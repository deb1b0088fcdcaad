package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/blob"
	"messenger-service/internal/identity"
	"messenger-service/internal/middleware"
)

// MediaHandler uploads message media and profile pictures. The returned
// download URL is what a client sends as the content of a photo or video
// message.
type MediaHandler struct {
	blobs blob.Store
}

// NewMediaHandler builds a MediaHandler.
func NewMediaHandler(blobs blob.Store) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

// UploadMessagePhoto stores an image for a conversation message.
func (h *MediaHandler) UploadMessagePhoto(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}
	url, err := h.blobs.UploadMessagePhoto(c.Request.Context(), data, uuid.NewString()+".png")
	if err != nil {
		writeBlobError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// UploadMessageVideo stores a video for a conversation message.
func (h *MediaHandler) UploadMessageVideo(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}
	url, err := h.blobs.UploadMessageVideo(c.Request.Context(), data, uuid.NewString()+".mov")
	if err != nil {
		writeBlobError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// UploadProfilePicture stores the caller's profile picture under its
// identity-derived file name.
func (h *MediaHandler) UploadProfilePicture(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	data, ok := readUpload(c)
	if !ok {
		return
	}
	url, err := h.blobs.UploadProfilePicture(c.Request.Context(), data, identity.ProfilePictureFileName(sess.Email))
	if err != nil {
		writeBlobError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func readUpload(c *gin.Context) ([]byte, bool) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return nil, false
	}
	return data, true
}

func writeBlobError(c *gin.Context, err error) {
	if errors.Is(err, blob.ErrDownloadURLUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "download url unavailable"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
}
