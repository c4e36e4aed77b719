package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

const imageCacheControl = "public, max-age=31536000, immutable"

var (
	errEmptyObject        = errors.New("storage: object data is empty")
	errContentTypeDenied  = errors.New("storage: content type not allowed")
	errObjectTooLarge     = errors.New("storage: object exceeds maximum size")
	defaultAllowedImages  = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/avif"}
	defaultMaxObjectBytes = int64(10 << 20)
)

// ObjectOpener returns a writer for a new object. The upload is committed when the writer is closed.
type ObjectOpener func(ctx context.Context, bucket, object, contentType string) io.WriteCloser

// Uploader stores catalog images in a Cloud Storage bucket and resolves their public URLs.
type Uploader struct {
	bucket       string
	baseURL      string
	open         ObjectOpener
	maxBytes     int64
	allowedTypes map[string]struct{}
}

// UploaderOption customises the Uploader.
type UploaderOption func(*Uploader)

// WithObjectOpener replaces the Cloud Storage writer, mainly for tests.
func WithObjectOpener(open ObjectOpener) UploaderOption {
	return func(u *Uploader) {
		if open != nil {
			u.open = open
		}
	}
}

// WithMaxObjectBytes caps the accepted object size.
func WithMaxObjectBytes(limit int64) UploaderOption {
	return func(u *Uploader) {
		if limit > 0 {
			u.maxBytes = limit
		}
	}
}

// NewUploader constructs an Uploader. client may be nil only when WithObjectOpener is supplied.
func NewUploader(client *gcs.Client, bucket, publicBaseURL string, opts ...UploaderOption) (*Uploader, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage uploader: bucket is required")
	}
	u := &Uploader{
		bucket:       bucket,
		baseURL:      strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		maxBytes:     defaultMaxObjectBytes,
		allowedTypes: make(map[string]struct{}, len(defaultAllowedImages)),
	}
	for _, ct := range defaultAllowedImages {
		u.allowedTypes[ct] = struct{}{}
	}
	if client != nil {
		u.open = func(ctx context.Context, bucket, object, contentType string) io.WriteCloser {
			w := client.Bucket(bucket).Object(object).NewWriter(ctx)
			w.ContentType = contentType
			w.CacheControl = imageCacheControl
			return w
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	if u.open == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	if u.baseURL == "" {
		return nil, errors.New("storage uploader: public base url is required")
	}
	return u, nil
}

// Upload writes data to objectPath. Nothing is visible at the path unless the call succeeds.
func (u *Uploader) Upload(ctx context.Context, objectPath, contentType string, data []byte) error {
	if u == nil || u.open == nil {
		return errors.New("storage uploader: not initialised")
	}
	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return errors.New("storage: object name is required")
	}
	if len(data) == 0 {
		return errEmptyObject
	}
	if int64(len(data)) > u.maxBytes {
		return fmt.Errorf("%w: %d bytes", errObjectTooLarge, len(data))
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if _, ok := u.allowedTypes[contentType]; !ok {
		return fmt.Errorf("%w: %q", errContentTypeDenied, contentType)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := u.open(ctx, u.bucket, objectPath, contentType)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		// cancelling before Close aborts the pending object
		cancel()
		_ = w.Close()
		return fmt.Errorf("storage: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: commit %s: %w", objectPath, err)
	}
	return nil
}

// URL returns the public URL of objectPath.
func (u *Uploader) URL(objectPath string) string {
	segments := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, strings.Join(segments, "/"))
}
