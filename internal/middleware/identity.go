package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HeaderFirebaseUID carries the Firebase uid of the signed-in dashboard user.
const HeaderFirebaseUID = "X-Firebase-UID"

type userResolver interface {
	GetUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
}

// RequireIdentity resolves the local user behind the Bearer token and
// X-Firebase-UID header pair. The token itself is verified upstream; here it
// only has to be present.
func RequireIdentity(users userResolver, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer, ok := bearerToken(c.GetHeader("Authorization"))
		uid := strings.TrimSpace(c.GetHeader(HeaderFirebaseUID))
		if !ok || uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := users.GetUserByFirebaseUID(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			logger.WithError(err).WithField("firebase_uid", uid).Error("failed to resolve user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), Principal{
			UserID:      user.ID,
			FirebaseUID: user.FirebaseUID,
			BearerToken: bearer,
		}))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", false
	}
	return token, true
}
