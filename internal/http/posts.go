package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"postboard/internal/auth"
	"postboard/internal/domain"
)

type postRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"imageUrl"`
}

func (r postRequest) toInput() domain.PostInput {
	return domain.PostInput{Title: r.Title, Body: r.Body, ImageURL: r.ImageURL}
}

type PostResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ImageURL  string `json:"imageUrl"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		UserID:    post.UserID,
		Title:     post.Title,
		Body:      post.Body,
		ImageURL:  post.ImageURL,
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: post.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (h *Handler) listPosts(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	posts, err := h.posts.ListPosts(c.Request.Context(), callerID)
	if err != nil {
		h.fail(c, "POSTS_GET", err)
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createPost(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "POST_POST", err)
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), callerID, req.toInput())
	if err != nil {
		h.fail(c, "POST_POST", err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

// getPost answers null when the post is missing or owned by someone else.
func (h *Handler) getPost(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	post, err := h.posts.GetPost(c.Request.Context(), callerID, c.Param("id"))
	if errors.Is(err, domain.ErrPostNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		h.fail(c, "POST_GET", err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) updatePost(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "POST_PATCH", err)
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), callerID, c.Param("id"), req.toInput())
	if err != nil {
		h.fail(c, "POST_PATCH", err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) deletePost(c *gin.Context) {
	callerID, _ := auth.CallerID(c)

	post, err := h.posts.DeletePost(c.Request.Context(), callerID, c.Param("id"))
	if err != nil {
		h.fail(c, "POST_DELETE", err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}
