package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithToken("tok"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("localhost:8080"); err == nil {
		t.Error("expected error for url without scheme")
	}
}

func TestClient_CreatePost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/posts" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var data PostData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if data.Title != "Hello" || data.ImageURL != "https://x/img.png" {
			t.Errorf("body = %+v", data)
		}
		io.WriteString(w, `{"id":"p1","userId":"u1","title":"Hello","body":"World body","imageUrl":"https://x/img.png","createdAt":"2024-01-02T03:04:05.123456Z","updatedAt":"2024-01-02T03:04:05.123456Z"}`)
	})

	post, err := c.CreatePost(context.Background(), PostData{Title: "Hello", Body: "World body", ImageURL: "https://x/img.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.ID != "p1" || post.UserID != "u1" {
		t.Errorf("post = %+v", post)
	}
	if post.UpdatedAt.IsZero() || !post.CreatedAt.Equal(post.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", post.CreatedAt, post.UpdatedAt)
	}
}

func TestClient_GetPostNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts/p%2F1" && r.URL.RawPath != "/api/posts/p%2F1" {
			t.Errorf("path = %q raw %q", r.URL.Path, r.URL.RawPath)
		}
		io.WriteString(w, "null")
	})

	post, err := c.GetPost(context.Background(), "p/1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if post != nil {
		t.Errorf("post = %+v, want nil", post)
	}
}

func TestClient_ListEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "[]")
	})

	posts, err := c.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("posts = %#v", posts)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantMsg  string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: "unauthorized", wantCode: 401, wantMsg: "unauthorized"},
		{name: "validation", status: http.StatusBadRequest, body: "title is required", wantCode: 400, wantMsg: "title is required"},
		{name: "internal", status: http.StatusInternalServerError, body: "Internal Server Error, Please try again later", wantCode: 500, wantMsg: "Internal Server Error, Please try again later"},
		{name: "empty body", status: http.StatusBadGateway, body: "", wantCode: 502, wantMsg: "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.UpdatePost(context.Background(), "p1", PostData{})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want APIError", err)
			}
			if StatusCode(err) != tt.wantCode || err.Error() != tt.wantMsg {
				t.Errorf("got %d %q, want %d %q", StatusCode(err), err.Error(), tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestClient_LoginLogout(t *testing.T) {
	var sawToken string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			io.WriteString(w, `{"token":"fresh","expiresAt":"2030-01-01T00:00:00Z","user":{"id":"u1","username":"alice"}}`)
		case "/api/auth/logout":
			sawToken = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	c.SetToken("")

	session, err := c.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.User.Username != "alice" || c.Token() != "fresh" {
		t.Errorf("session = %+v token %q", session, c.Token())
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sawToken != "Bearer fresh" {
		t.Errorf("logout Authorization = %q", sawToken)
	}
	if c.Token() != "" {
		t.Errorf("token after logout = %q", c.Token())
	}
}

func TestClient_UploadImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "cat.png" || string(data) != "png-bytes" {
			t.Errorf("file = %s %q", header.Filename, data)
		}
		io.WriteString(w, `{"url":"https://cdn.example.com/cat.png","size":9}`)
	})

	image, err := c.UploadImage(context.Background(), "/tmp/pics/cat.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if image.URL != "https://cdn.example.com/cat.png" || image.Size != 9 {
		t.Errorf("image = %+v", image)
	}
}
