package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/store"
	"messenger-service/internal/users"
)

// UserHandler serves the global user search index.
type UserHandler struct {
	dir users.Directory
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(dir users.Directory) *UserHandler {
	return &UserHandler{dir: dir}
}

// ListUsers returns the search index, optionally filtered by a name prefix.
func (h *UserHandler) ListUsers(c *gin.Context) {
	listings, err := h.dir.AllUsers(c.Request.Context())
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"users": []models.UserListing{}})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	if q := strings.ToLower(c.Query("q")); q != "" {
		filtered := make([]models.UserListing, 0, len(listings))
		for _, l := range listings {
			if strings.HasPrefix(strings.ToLower(l.Name), q) {
				filtered = append(filtered, l)
			}
		}
		listings = filtered
	}
	c.JSON(http.StatusOK, gin.H{"users": listings})
}
