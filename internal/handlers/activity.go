package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-fitdash/fitdash/internal/middleware"
	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ActivityHandler struct {
	sync       *services.SyncService
	activities *services.ActivityService
	log        logrus.FieldLogger
}

func NewActivityHandler(
	sync *services.SyncService,
	activities *services.ActivityService,
	logger logrus.FieldLogger,
) *ActivityHandler {
	return &ActivityHandler{
		sync:       sync,
		activities: activities,
		log:        logger.WithField("component", "activity_handler"),
	}
}

// List returns the caller's stored activities, newest first.
func (h *ActivityHandler) List(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	activities, err := h.sync.ListActivities(c.Request.Context(), principal.UserID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", principal.UserID).Error("failed to list activities")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activities"})
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// Sync pulls the caller's activities from Strava.
func (h *ActivityHandler) Sync(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	result, err := h.sync.SyncActivities(c.Request.Context(), principal.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotConnected):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Strava not connected"})
		case errors.Is(err, services.ErrRemoteFetch):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activities from Strava"})
		default:
			h.log.WithError(err).WithField("user_id", principal.UserID).Error("sync failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync activities"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Synced %d activities", result.Saved),
		"totalFetched": result.Fetched,
		"saved":        result.Saved,
	})
}

// Update applies a partial edit to one of the caller's activities.
func (h *ActivityHandler) Update(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var patch models.ActivityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity update"})
		return
	}

	activity, err := h.activities.ApplyEdit(c.Request.Context(), c.Param("id"), principal.UserID, patch)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrActivityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
		case errors.Is(err, services.ErrEmptyPatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		default:
			h.log.WithError(err).WithFields(logrus.Fields{
				"user_id":     principal.UserID,
				"activity_id": c.Param("id"),
			}).Error("failed to update activity")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update activity"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

// MirrorFailures lists edits that could not be pushed to Strava.
func (h *ActivityHandler) MirrorFailures(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	failures, err := h.activities.ListMirrorFailures(c.Request.Context(), principal.UserID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", principal.UserID).Error("failed to list mirror failures")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch mirror failures"})
		return
	}
	if failures == nil {
		failures = []models.MirrorFailure{}
	}
	c.JSON(http.StatusOK, gin.H{"failures": failures})
}

func requirePrincipal(c *gin.Context) (middleware.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return principal, ok
}
