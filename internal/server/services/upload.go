package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/logging"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
)

// ObjectStore is where uploaded files end up.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	// Path is the folder inside the bucket, e.g. "avatars".
	Path string
	// FileTypeCheck is a comma-separated list of allowed extensions
	// (".png", "jpg") or MIME prefixes ("image/"). Empty allows any file.
	FileTypeCheck string
}

type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type Uploader struct {
	objects   ObjectStore
	attempts  int
	baseDelay time.Duration
	maxBytes  int64
	logger    logging.Logger
}

func NewUploader(objects ObjectStore, cfg *config.Config, logger logging.Logger) *Uploader {
	attempts := cfg.UploadAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.UploadBaseDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	return &Uploader{
		objects:   objects,
		attempts:  attempts,
		baseDelay: delay,
		maxBytes:  cfg.UploadMaxBytes,
		logger:    logger,
	}
}

func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload stores the file under Path with a generated name and returns its
// public URL and key. The put is retried with exponential backoff.
func (u *Uploader) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if len(in.Data) == 0 {
		return nil, common.BadRequest("file is required")
	}
	if u.maxBytes > 0 && int64(len(in.Data)) > u.maxBytes {
		return nil, common.BadRequest("file exceeds %d bytes", u.maxBytes)
	}
	if !allowedType(in.FileTypeCheck, in.Filename, in.ContentType) {
		return nil, common.BadRequest("file type not allowed, expected %s", in.FileTypeCheck)
	}

	dir, err := cleanPath(in.Path)
	if err != nil {
		return nil, err
	}
	key := uuid.NewString() + strings.ToLower(path.Ext(in.Filename))
	if dir != "" {
		key = dir + "/" + key
	}

	try := 0
	backoff := retry.WithMaxRetries(uint64(u.attempts-1), retry.NewExponential(u.baseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		try++
		if err := u.objects.Put(ctx, key, in.Data, in.ContentType); err != nil {
			u.logger.Warn(ctx, "upload attempt failed", "key", key, "attempt", try, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &UploadResult{URL: u.objects.URL(key), Filename: key}, nil
}

// Remove deletes a previously uploaded object by the key Upload returned.
func (u *Uploader) Remove(ctx context.Context, filename string) error {
	key, err := cleanPath(filename)
	if err != nil {
		return err
	}
	if key == "" {
		return common.BadRequest("filename is required")
	}
	return u.objects.Delete(ctx, key)
}

// cleanPath normalises a bucket path and rejects escapes above the root.
func cleanPath(p string) (string, error) {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "", nil
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", common.BadRequest("invalid path %q", p)
		}
	}
	return strings.Trim(path.Clean(p), "/"), nil
}

func allowedType(check, filename, contentType string) bool {
	check = strings.TrimSpace(check)
	if check == "" {
		return true
	}
	ext := strings.ToLower(path.Ext(filename))
	contentType = strings.ToLower(contentType)

	for _, want := range strings.Split(check, ",") {
		want = strings.ToLower(strings.TrimSpace(want))
		switch {
		case want == "":
		case strings.Contains(want, "/"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(want, "*")) {
				return true
			}
		default:
			if !strings.HasPrefix(want, ".") {
				want = "." + want
			}
			if ext == want {
				return true
			}
		}
	}
	return false
}
