package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImagesConfig describes where post images live and how they are addressed publicly.
type ImagesConfig struct {
	Bucket        string
	KeyPrefix     string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// Images stores post images under per-owner keys and maps their public URLs back to keys.
type Images struct {
	svc Service
	cfg ImagesConfig
}

func NewImages(svc Service, cfg ImagesConfig) *Images {
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Images{svc: svc, cfg: cfg}
}

// Enabled reports whether a bucket is configured.
func (i *Images) Enabled() bool {
	return i != nil && i.svc != nil && i.cfg.Bucket != ""
}

// Put uploads an image owned by ownerID and returns its public URL.
func (i *Images) Put(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (string, error) {
	if !i.Enabled() {
		return "", ErrNotConfigured
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", ErrUnsupportedType
	}

	key := i.ownerPrefix(ownerID) + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if err := i.svc.Upload(ctx, i.cfg.Bucket, key, body, contentType); err != nil {
		return "", err
	}
	return i.ObjectURL(key), nil
}

// List returns every image stored for ownerID along with its public URL.
func (i *Images) List(ctx context.Context, ownerID string) ([]ObjectInfo, error) {
	if !i.Enabled() {
		return nil, ErrNotConfigured
	}
	objects, err := i.svc.ListObjects(ctx, i.cfg.Bucket, i.ownerPrefix(ownerID))
	if err != nil {
		return nil, err
	}
	for n := range objects {
		objects[n].URL = i.ObjectURL(objects[n].Key)
	}
	return objects, nil
}

// Remove deletes the object behind imageURL. URLs that do not resolve to a key
// under the owner's prefix yield ErrForeignURL and nothing is deleted.
func (i *Images) Remove(ctx context.Context, ownerID, imageURL string) error {
	if !i.Enabled() {
		return ErrNotConfigured
	}
	key, err := i.KeyFromURL(imageURL)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(key, i.ownerPrefix(ownerID)) {
		return fmt.Errorf("key %s outside owner prefix: %w", key, ErrForeignURL)
	}
	return i.svc.DeleteObject(ctx, i.cfg.Bucket, key)
}

// ObjectURL builds the public URL for key.
func (i *Images) ObjectURL(key string) string {
	escaped := escapeKey(key)
	switch {
	case i.cfg.PublicBaseURL != "":
		return i.cfg.PublicBaseURL + "/" + escaped
	case i.cfg.Endpoint != "":
		return i.cfg.Endpoint + "/" + i.cfg.Bucket + "/" + escaped
	case i.cfg.Region != "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", i.cfg.Bucket, i.cfg.Region, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", i.cfg.Bucket, escaped)
	}
}

// KeyFromURL derives the object key from any URL shape this service hands out:
// s3://bucket/key, the public base URL, virtual-hosted S3 and path-style endpoints.
func (i *Images) KeyFromURL(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", fmt.Errorf("image url is empty")
	}

	if strings.HasPrefix(raw, "s3://") {
		return extractS3Key(raw, i.cfg.Bucket)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrForeignURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""

	if i.cfg.PublicBaseURL != "" {
		if rest, ok := strings.CutPrefix(parsed.String(), i.cfg.PublicBaseURL+"/"); ok {
			return unescapeKey(rest)
		}
	}

	host := strings.ToLower(parsed.Hostname())
	bucket := strings.ToLower(i.cfg.Bucket)
	if bucket != "" && strings.HasPrefix(host, bucket+".s3") && strings.HasSuffix(host, ".amazonaws.com") {
		return unescapeKey(strings.TrimPrefix(parsed.EscapedPath(), "/"))
	}

	if i.cfg.Endpoint != "" {
		endpoint, err := url.Parse(i.cfg.Endpoint)
		if err == nil && strings.EqualFold(endpoint.Host, parsed.Host) {
			if rest, ok := strings.CutPrefix(parsed.EscapedPath(), "/"+i.cfg.Bucket+"/"); ok {
				return unescapeKey(rest)
			}
		}
	}

	return "", ErrForeignURL
}

func (i *Images) ownerPrefix(ownerID string) string {
	if i.cfg.KeyPrefix == "" {
		return ownerID + "/"
	}
	return i.cfg.KeyPrefix + "/" + ownerID + "/"
}

func extractS3Key(location, bucket string) (string, error) {
	rest := strings.TrimPrefix(location, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("invalid s3 location")
	}
	if parts[0] != bucket {
		return "", ErrForeignURL
	}
	if len(parts) == 1 || strings.Trim(parts[1], "/") == "" {
		return "", fmt.Errorf("s3 key missing")
	}
	return strings.TrimPrefix(parts[1], "/"), nil
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for n, s := range segments {
		segments[n] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func unescapeKey(escaped string) (string, error) {
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("unescape key: %w", err)
	}
	key = path.Clean("/" + key)[1:]
	if key == "" {
		return "", fmt.Errorf("object key missing")
	}
	return key, nil
}
