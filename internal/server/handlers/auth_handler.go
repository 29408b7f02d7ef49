package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/service/auth"
	"github.com/mamadbah2/hivelog/pkg/clients/identity"
)

// AuthHandler exposes sign-in, sign-up, recovery and deep-link mediation.
// Failures surface as inline errors next to the triggering control; none of
// them are fatal to the process.
type AuthHandler struct {
	observer *auth.Observer
	client   identity.Client
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(observer *auth.Observer, client identity.Client, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{observer: observer, client: client, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn performs a password sign-in.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.client.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("sign-in failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": session.User.ID, "email": session.User.Email})
}

// SignUp registers a new account; the confirmation email deep-links back.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	if _, err := h.client.SignUp(c.Request.Context(), req.Email, req.Password); err != nil {
		h.logger.Warn("sign-up failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to register account"})
		return
	}

	c.Status(http.StatusAccepted)
}

// SignOut invalidates the session; local state is cleared even when the
// remote call fails.
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.observer.SignOut(c.Request.Context())
	c.Status(http.StatusOK)
}

// Recover requests a password-reset email and marks the recovery flow as
// pending locally.
func (h *AuthHandler) Recover(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	h.observer.MarkRecoveryPending()

	if err := h.client.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.logger.Warn("password reset request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to request password reset"})
		return
	}

	c.Status(http.StatusAccepted)
}

// UpdatePassword completes a recovery flow under the observer's watchdog.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	if err := h.observer.UpdatePassword(c.Request.Context(), req.Password); err != nil {
		h.logger.Warn("password update failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

// DeepLink ingests a deep-link URL delivered to the app.
func (h *AuthHandler) DeepLink(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	if err := h.observer.HandleDeepLink(c.Request.Context(), req.URL); err != nil {
		if errors.Is(err, auth.ErrNoCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session establishment failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": h.observer.State()})
}

// SessionState reports the observer state.
func (h *AuthHandler) SessionState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.observer.State()})
}
