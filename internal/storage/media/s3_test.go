package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/newsapp/internal/util"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[r.URL.Path] = string(body)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(b.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStore(t *testing.T) (*S3Store, *fakeBucket, string) {
	t.Helper()
	bucket := &fakeBucket{objects: make(map[string]string)}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), &util.S3Config{
		Endpoint:     srv.URL,
		Region:       "us-east-1",
		Bucket:       "media",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	return store, bucket, srv.URL
}

func TestUploadAndDelete(t *testing.T) {
	store, bucket, base := newStore(t)
	ctx := context.Background()

	url, err := store.Upload(ctx, "thumbs/a.png", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, base+"/media/thumbs/a.png", url)
	assert.Equal(t, "png-bytes", bucket.objects["/media/thumbs/a.png"])

	require.NoError(t, store.Delete(ctx, "thumbs/a.png"))
	assert.Empty(t, bucket.objects)
}

func TestUpload_NonSeekableBody(t *testing.T) {
	store, bucket, _ := newStore(t)

	_, err := store.Upload(context.Background(), "k.jpg", "image/jpeg", io.NopCloser(strings.NewReader("jpeg")), -1)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", bucket.objects["/media/k.jpg"])
}

func TestThumbnailKey(t *testing.T) {
	key := ThumbnailKey("/newsapp/thumbnails/", ".png")
	assert.True(t, strings.HasPrefix(key, "newsapp/thumbnails/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ThumbnailKey("newsapp/thumbnails", "png"))
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(&util.S3Config{PublicURL: "https://cdn.example.com"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicBaseURL(&util.S3Config{Bucket: "b", Region: "eu-west-1"}))
}
