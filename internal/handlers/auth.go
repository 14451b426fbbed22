package handlers

import (
	"errors"
	"net/http"

	"github.com/go-fitdash/fitdash/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	users *services.UserService
	log   logrus.FieldLogger
}

func NewAuthHandler(users *services.UserService, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		users: users,
		log:   logger.WithField("component", "auth_handler"),
	}
}

type loginRequest struct {
	FirebaseUID    string  `json:"firebaseUid"    binding:"required,max=128"`
	Email          string  `json:"email"          binding:"required,email"`
	Name           string  `json:"name"           binding:"required,max=255"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,url"`
}

// Login maps a Firebase identity to the local user, creating it on first sign-in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login request"})
		return
	}

	user, created, err := h.users.Login(c.Request.Context(), services.LoginInput{
		FirebaseUID:    req.FirebaseUID,
		Email:          req.Email,
		Name:           req.Name,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		h.log.WithError(err).WithField("firebase_uid", req.FirebaseUID).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	if created {
		h.log.WithField("user_id", user.ID).Info("new dashboard user")
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		h.log.WithError(err).WithField("user_id", principal.UserID).Error("failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
