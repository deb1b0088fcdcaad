package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/session"
	"messenger-service/internal/users"
)

// AuthHandler manages registration and sign-in.
type AuthHandler struct {
	dir    users.Directory
	tokens *session.TokenManager
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(dir users.Directory, tokens *session.TokenManager) *AuthHandler {
	return &AuthHandler{dir: dir, tokens: tokens}
}

// Register creates the user node, the search index listing, and the login
// credentials, then issues a session token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.dir.UserExists(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check user"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		return
	}

	hash, err := session.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	if err := h.dir.SaveCredentials(c.Request.Context(), req.Email, models.Credentials{PasswordHash: hash}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}
	if err := h.dir.InsertUser(c.Request.Context(), req.Email, models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	token, expiresAt, err := h.tokens.Generate(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "expires_at": expiresAt})
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds, err := h.dir.Credentials(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := session.CheckPassword(creds.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := h.tokens.Generate(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt})
}
