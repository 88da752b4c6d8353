package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"postboard/internal/auth"
	"postboard/internal/domain"
	"postboard/internal/service"
	"postboard/internal/storage"
)

const internalErrorMessage = "Internal Server Error, Please try again later"

// ImageStore hosts uploaded post images.
type ImageStore interface {
	Enabled() bool
	Put(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (string, error)
	List(ctx context.Context, ownerID string) ([]storage.ObjectInfo, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	posts          service.PostService
	users          service.UserService
	auth           *auth.Authenticator
	images         ImageStore
	maxUploadBytes int64
	logger         *logrus.Logger
}

func NewHandler(posts service.PostService, users service.UserService, authn *auth.Authenticator, images ImageStore, maxUploadBytes int64, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{
		posts:          posts,
		users:          users,
		auth:           authn,
		images:         images,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware(), h.auth.Identify())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
	}

	authed := api.Group("", auth.RequireCaller())
	{
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/me", h.me)

		authed.GET("/posts", h.listPosts)
		authed.POST("/posts", h.createPost)
		authed.GET("/posts/:id", h.getPost)
		authed.PATCH("/posts/:id", h.updatePost)
		authed.DELETE("/posts/:id", h.deletePost)

		authed.POST("/images", h.uploadImage)
		authed.GET("/images", h.listImages)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

// fail maps err onto the unauthorized/validation/internal taxonomy.
// Internal details are logged under op and never sent to the client.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.String(http.StatusUnauthorized, "unauthorized")
	case errors.As(err, &validation):
		c.String(http.StatusBadRequest, validation.Error())
	default:
		fields := logrus.Fields{"op": op}
		if id, ok := auth.CallerID(c); ok {
			fields["user_id"] = id
		}
		if postID := c.Param("id"); postID != "" {
			fields["post_id"] = postID
		}
		h.logger.WithFields(fields).WithError(err).Error("request failed")
		c.String(http.StatusInternalServerError, internalErrorMessage)
	}
}
