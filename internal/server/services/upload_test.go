package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/logging"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
)

var errS3Down = errors.New("s3 unavailable")

type fakeObjects struct {
	mu      sync.Mutex
	failPut int
	puts    int
	objects map[string][]byte
	deleted []string
}

func newFakeObjects(failPut int) *fakeObjects {
	return &fakeObjects{failPut: failPut, objects: map[string][]byte{}}
}

func (f *fakeObjects) Put(_ context.Context, key string, body []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPut > 0 {
		f.failPut--
		return errS3Down
	}
	f.objects[key] = body
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) URL(key string) string { return "http://cdn.test/" + key }

func newTestUploader(objects ObjectStore, attempts int) *Uploader {
	cfg := &config.Config{
		UploadAttempts:  attempts,
		UploadBaseDelay: time.Millisecond,
		UploadMaxBytes:  16,
	}
	return NewUploader(objects, cfg, logging.Nop())
}

func TestUpload_RetriesThenSucceeds(t *testing.T) {
	objects := newFakeObjects(2)
	u := newTestUploader(objects, 3)

	res, err := u.Upload(context.Background(), UploadInput{
		Filename:    "Avatar.PNG",
		ContentType: "image/png",
		Data:        []byte("png"),
		Path:        "/avatars/",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, objects.puts)
	assert.True(t, strings.HasPrefix(res.Filename, "avatars/"))
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))
	assert.Equal(t, "http://cdn.test/"+res.Filename, res.URL)
	assert.Equal(t, []byte("png"), objects.objects[res.Filename])
}

func TestUpload_GivesUpAfterAttempts(t *testing.T) {
	objects := newFakeObjects(5)
	u := newTestUploader(objects, 2)

	_, err := u.Upload(context.Background(), UploadInput{Filename: "a.txt", Data: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errS3Down)
	assert.Equal(t, common.KindInternal, common.KindOf(err))
	assert.Equal(t, 2, objects.puts)
	assert.Empty(t, objects.objects)
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name string
		in   UploadInput
		want string
	}{
		{"empty", UploadInput{Filename: "a.png"}, "file is required"},
		{"too big", UploadInput{Filename: "a.png", Data: make([]byte, 17)}, "file exceeds 16 bytes"},
		{"wrong extension", UploadInput{Filename: "a.exe", Data: []byte("x"), FileTypeCheck: ".png,.jpg"}, "file type not allowed"},
		{"wrong mime", UploadInput{Filename: "a", ContentType: "text/plain", Data: []byte("x"), FileTypeCheck: "image/*"}, "file type not allowed"},
		{"traversal", UploadInput{Filename: "a.png", Data: []byte("x"), Path: "avatars/../../etc"}, "invalid path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := newFakeObjects(0)
			_, err := newTestUploader(objects, 1).Upload(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, common.KindBadRequest, common.KindOf(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, objects.puts)
		})
	}
}

func TestAllowedType(t *testing.T) {
	tests := []struct {
		check, filename, contentType string
		want                         bool
	}{
		{"", "anything.bin", "", true},
		{"png, jpg", "photo.JPG", "", true},
		{".png", "photo.jpeg", "image/jpeg", false},
		{"image/", "x", "image/webp", true},
		{"image/*", "x", "IMAGE/PNG", true},
		{"video/", "clip.mp4", "image/png", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, allowedType(tt.check, tt.filename, tt.contentType), "%q %q %q", tt.check, tt.filename, tt.contentType)
	}
}

func TestRemove(t *testing.T) {
	objects := newFakeObjects(0)
	u := newTestUploader(objects, 1)
	ctx := context.Background()

	require.NoError(t, u.Remove(ctx, "/avatars/./a.png"))
	assert.Equal(t, []string{"avatars/a.png"}, objects.deleted)

	assert.Equal(t, common.KindBadRequest, common.KindOf(u.Remove(ctx, "")))
	assert.Equal(t, common.KindBadRequest, common.KindOf(u.Remove(ctx, "../secret")))
	assert.Len(t, objects.deleted, 1)
}

func TestNewUploader_ClampsConfig(t *testing.T) {
	u := NewUploader(newFakeObjects(0), &config.Config{}, logging.Nop())
	assert.Equal(t, 1, u.attempts)
	assert.Equal(t, time.Millisecond, u.baseDelay)
	assert.Zero(t, u.MaxBytes())
}
