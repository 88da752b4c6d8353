package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"postboard/internal/auth"
	"postboard/internal/storage"
)

type ImageResponse struct {
	URL          string  `json:"url"`
	Size         int64   `json:"size,omitempty"`
	LastModified *string `json:"lastModified,omitempty"`
}

func (h *Handler) uploadImage(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	if h.images == nil || !h.images.Enabled() {
		h.fail(c, "IMAGE_POST", storage.ErrNotConfigured)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		c.String(http.StatusBadRequest, "file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, "IMAGE_POST", err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			h.fail(c, "IMAGE_POST", err)
			return
		}
	}

	url, err := h.images.Put(c.Request.Context(), callerID, header.Filename, contentType, file)
	if errors.Is(err, storage.ErrUnsupportedType) {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.fail(c, "IMAGE_POST", err)
		return
	}
	c.JSON(http.StatusOK, ImageResponse{URL: url, Size: header.Size})
}

func (h *Handler) listImages(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	if h.images == nil || !h.images.Enabled() {
		h.fail(c, "IMAGES_GET", storage.ErrNotConfigured)
		return
	}

	objects, err := h.images.List(c.Request.Context(), callerID)
	if err != nil {
		h.fail(c, "IMAGES_GET", err)
		return
	}

	resp := make([]ImageResponse, len(objects))
	for i, obj := range objects {
		resp[i] = ImageResponse{URL: obj.URL, Size: obj.Size}
		if obj.LastModified != nil && !obj.LastModified.IsZero() {
			v := obj.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}
