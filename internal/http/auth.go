package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"postboard/internal/auth"
	"postboard/internal/domain"
	"postboard/internal/service"
)

type registerRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	RegisterPassword string `json:"registerPassword"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password, req.RegisterPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, UserResponse{ID: user.ID, Username: user.Username})
	case domain.IsValidation(err), errors.Is(err, service.ErrPasswordTooShort):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidRegistrationPassword):
		c.String(http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUserAlreadyExists):
		c.String(http.StatusConflict, err.Error())
	default:
		h.fail(c, "AUTH_REGISTER", err)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.String(http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.fail(c, "AUTH_LOGIN", err)
		return
	}

	token, claims, err := h.auth.Tokens().Issue(user)
	if err != nil {
		h.fail(c, "AUTH_LOGIN", err)
		return
	}

	expiresAt := claims.ExpiresAt.Time
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), token, int(time.Until(expiresAt).Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      UserResponse{ID: user.ID, Username: user.Username},
	})
}

func (h *Handler) logout(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)

	if err := h.auth.Revoker().Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.fail(c, "AUTH_LOGOUT", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	user, err := h.users.GetByID(c.Request.Context(), callerID)
	if errors.Is(err, domain.ErrUserNotFound) {
		c.String(http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		h.fail(c, "AUTH_ME", err)
		return
	}
	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Username: user.Username})
}
