package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type fakeService struct {
	uploaded map[string]string
	deleted  []string
	listed   []ObjectInfo
	err      error
}

func newFakeService() *fakeService {
	return &fakeService{uploaded: map[string]string{}}
}

func (f *fakeService) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploaded[key] = string(data)
	return nil
}

func (f *fakeService) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for _, obj := range f.listed {
		if strings.HasPrefix(obj.Key, prefix) {
			out = append(out, obj)
		}
	}
	return out, f.err
}

func (f *fakeService) DeleteObject(ctx context.Context, bucket, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ImagesConfig
		url     string
		want    string
		wantErr error
	}{
		{
			name: "s3 location",
			cfg:  ImagesConfig{Bucket: "media"},
			url:  "s3://media/post-images/u1/a.png",
			want: "post-images/u1/a.png",
		},
		{
			name:    "s3 location other bucket",
			cfg:     ImagesConfig{Bucket: "media"},
			url:     "s3://elsewhere/post-images/u1/a.png",
			wantErr: ErrForeignURL,
		},
		{
			name: "public base url",
			cfg:  ImagesConfig{Bucket: "media", PublicBaseURL: "https://cdn.example.com/assets/"},
			url:  "https://cdn.example.com/assets/post-images/u1/a.png?v=3",
			want: "post-images/u1/a.png",
		},
		{
			name: "virtual hosted regional",
			cfg:  ImagesConfig{Bucket: "media", Region: "eu-west-1"},
			url:  "https://media.s3.eu-west-1.amazonaws.com/post-images/u1/my%20pic.png",
			want: "post-images/u1/my pic.png",
		},
		{
			name: "virtual hosted global",
			cfg:  ImagesConfig{Bucket: "media"},
			url:  "https://media.s3.amazonaws.com/post-images/u1/a.png",
			want: "post-images/u1/a.png",
		},
		{
			name: "path style endpoint",
			cfg:  ImagesConfig{Bucket: "media", Endpoint: "http://localhost:9000"},
			url:  "http://localhost:9000/media/post-images/u1/a.png",
			want: "post-images/u1/a.png",
		},
		{
			name:    "foreign host",
			cfg:     ImagesConfig{Bucket: "media"},
			url:     "https://res.cloudinary.com/demo/image/upload/v1708263472/sample.png",
			wantErr: ErrForeignURL,
		},
		{
			name:    "not http",
			cfg:     ImagesConfig{Bucket: "media"},
			url:     "ftp://media.s3.amazonaws.com/x.png",
			wantErr: ErrForeignURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := NewImages(newFakeService(), tt.cfg)
			got, err := images.KeyFromURL(tt.url)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("KeyFromURL(%q) err = %v, want %v", tt.url, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("KeyFromURL(%q) failed: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("KeyFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestKeyFromURL_Malformed(t *testing.T) {
	images := NewImages(newFakeService(), ImagesConfig{Bucket: "media"})

	for _, raw := range []string{"", "   ", "s3://", "s3://media", "s3://media/", "https://media.s3.amazonaws.com/"} {
		if _, err := images.KeyFromURL(raw); err == nil {
			t.Errorf("KeyFromURL(%q) expected error", raw)
		}
	}
}

func TestImages_PutThenRemove(t *testing.T) {
	svc := newFakeService()
	images := NewImages(svc, ImagesConfig{Bucket: "media", KeyPrefix: "/post-images/", Region: "us-east-1"})
	ctx := context.Background()

	url, err := images.Put(ctx, "u1", "Holiday.PNG", "image/png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !strings.HasPrefix(url, "https://media.s3.us-east-1.amazonaws.com/post-images/u1/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %q", url)
	}
	if len(svc.uploaded) != 1 {
		t.Fatalf("uploaded %d objects, want 1", len(svc.uploaded))
	}

	if err := images.Remove(ctx, "u2", url); !errors.Is(err, ErrForeignURL) {
		t.Errorf("Remove as other owner: err = %v, want ErrForeignURL", err)
	}
	if len(svc.deleted) != 0 {
		t.Fatalf("deleted %v, want nothing", svc.deleted)
	}

	if err := images.Remove(ctx, "u1", url); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(svc.deleted) != 1 {
		t.Fatalf("deleted %v, want one key", svc.deleted)
	}
	if _, ok := svc.uploaded[svc.deleted[0]]; !ok {
		t.Errorf("deleted key %q was never uploaded", svc.deleted[0])
	}
}

func TestImages_PutRejectsNonImages(t *testing.T) {
	images := NewImages(newFakeService(), ImagesConfig{Bucket: "media"})

	_, err := images.Put(context.Background(), "u1", "notes.txt", "text/plain", strings.NewReader("x"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestImages_Disabled(t *testing.T) {
	images := NewImages(newFakeService(), ImagesConfig{})
	if images.Enabled() {
		t.Fatal("expected images to be disabled without a bucket")
	}
	if err := images.Remove(context.Background(), "u1", "s3://x/y"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}

	var nilImages *Images
	if nilImages.Enabled() {
		t.Error("nil Images reported enabled")
	}
}

func TestImages_List(t *testing.T) {
	svc := newFakeService()
	svc.listed = []ObjectInfo{
		{Key: "post-images/u1/a.png", Size: 10},
		{Key: "post-images/u2/b.png", Size: 20},
	}
	images := NewImages(svc, ImagesConfig{Bucket: "media", KeyPrefix: "post-images", PublicBaseURL: "https://cdn.example.com"})

	objects, err := images.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("got %d objects, want 1", len(objects))
	}
	if objects[0].URL != "https://cdn.example.com/post-images/u1/a.png" {
		t.Errorf("URL = %q", objects[0].URL)
	}
}
