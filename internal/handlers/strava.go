package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Session keys spanning the connect → callback round-trip.
const (
	SessionConnectUserID = "strava_connect_user_id"
	SessionConnectState  = "strava_connect_state"
)

// StravaHandler links a dashboard user to their Strava account.
type StravaHandler struct {
	tokens      *services.TokenService
	frontendURL string
	metrics     core.Recorder
	log         logrus.FieldLogger
}

func NewStravaHandler(
	tokens *services.TokenService,
	frontendURL string,
	m core.Recorder,
	logger logrus.FieldLogger,
) *StravaHandler {
	return &StravaHandler{
		tokens:      tokens,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		metrics:     m,
		log:         logger.WithField("component", "strava_handler"),
	}
}

// Connect remembers the caller in the session and redirects to Strava's
// consent page.
func (h *StravaHandler) Connect(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	state, err := generateRandomState(32)
	if err != nil {
		h.log.WithError(err).Error("failed to generate oauth state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start Strava connection"})
		return
	}

	session := sessions.Default(c)
	session.Set(SessionConnectUserID, principal.UserID)
	session.Set(SessionConnectState, state)
	if err := session.Save(); err != nil {
		h.log.WithError(err).Error("failed to save connect session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start Strava connection"})
		return
	}

	c.Redirect(http.StatusFound, h.tokens.AuthorizationURL(state))
}

// Callback completes the authorization code flow and always lands the
// browser back on the dashboard, except for requests that never came from
// a connect round-trip.
func (h *StravaHandler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		h.metrics.RecordOAuthCallback(core.CallbackResultDenied)
		h.log.WithField("reason", reason).Info("strava authorization denied")
		h.redirectToDashboard(c, "error", "strava_denied")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	session := sessions.Default(c)
	userID, _ := session.Get(SessionConnectUserID).(string)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No user session found"})
		return
	}
	savedState, _ := session.Get(SessionConnectState).(string)
	if savedState == "" ||
		subtle.ConstantTimeCompare([]byte(savedState), []byte(c.Query("state"))) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}

	session.Delete(SessionConnectUserID)
	session.Delete(SessionConnectState)
	if err := session.Save(); err != nil {
		h.log.WithError(err).Warn("failed to clear connect session")
	}

	logger := h.log.WithField("user_id", userID)
	grant, err := h.tokens.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		h.metrics.RecordOAuthCallback(core.CallbackResultError)
		logger.WithError(err).Error("strava code exchange failed")
		h.redirectToDashboard(c, "error", "strava_error")
		return
	}

	if _, err := h.tokens.StoreInitialToken(c.Request.Context(), userID, grant); err != nil {
		h.metrics.RecordOAuthCallback(core.CallbackResultError)
		logger.WithError(err).Error("failed to store strava token")
		h.redirectToDashboard(c, "error", "strava_error")
		return
	}

	h.metrics.RecordOAuthCallback(core.CallbackResultSuccess)
	h.redirectToDashboard(c, "connected", "true")
}

// Status reports whether the caller has a linked Strava account.
func (h *StravaHandler) Status(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	connected, err := h.tokens.IsConnected(c.Request.Context(), principal.UserID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", principal.UserID).
			Error("failed to check strava connection")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check Strava connection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}

func (h *StravaHandler) redirectToDashboard(c *gin.Context, key, value string) {
	query := url.Values{key: {value}}
	c.Redirect(http.StatusFound, h.frontendURL+"/dashboard?"+query.Encode())
}

// generateRandomState returns a URL-safe random string for OAuth CSRF protection.
func generateRandomState(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
