package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlay-davidson/flog-it/internal/listing/media"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

func TestPublicURL(t *testing.T) {
	s := &S3Storage{baseURL: "https://cdn.flogit.com.au/listings"}
	assert.Equal(t, "https://cdn.flogit.com.au/listings/L1/0.jpeg", s.PublicURL(media.ImagePath("L1", 0)))
	assert.Equal(t, "https://cdn.flogit.com.au/listings/L1/2-thumb.jpeg", s.PublicURL(media.ThumbPath("L1", 2)))
}

func startMinIO(t *testing.T) (*S3Storage, string) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run against a MinIO container")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	require.NoError(t, pool.Client.Ping())

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        "latest",
		Cmd:        []string{"server", "/data"},
		Env: []string{
			"MINIO_ROOT_USER=minioadmin",
			"MINIO_ROOT_PASSWORD=minioadmin",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	endpoint := "localhost:" + resource.GetPort("9000/tcp")
	baseURL := fmt.Sprintf("http://%s/listings", endpoint)
	pool.MaxWait = 60 * time.Second

	var storage *S3Storage
	require.NoError(t, pool.Retry(func() error {
		var errRetry error
		storage, errRetry = NewS3Storage(context.Background(), Options{
			Endpoint:      endpoint,
			AccessKey:     "minioadmin",
			SecretKey:     "minioadmin",
			Bucket:        "listings",
			PublicBaseURL: baseURL,
		}, logger.NewNop())
		return errRetry
	}))
	return storage, baseURL
}

func TestS3Storage_Integration(t *testing.T) {
	storage, baseURL := startMinIO(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, storage.Put(ctx, media.ImagePath("L1", i), []byte(fmt.Sprintf("full-%d", i)), "image/jpeg"))
		require.NoError(t, storage.Put(ctx, media.ThumbPath("L1", i), []byte(fmt.Sprintf("thumb-%d", i)), "image/jpeg"))
	}
	require.NoError(t, storage.Put(ctx, media.ImagePath("L10", 0), []byte("other"), "image/jpeg"))

	t.Run("put overwrites and object is public", func(t *testing.T) {
		require.NoError(t, storage.Put(ctx, media.ImagePath("L1", 0), []byte("replaced"), "image/jpeg"))

		resp, err := http.Get(storage.PublicURL(media.ImagePath("L1", 0)))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "replaced", string(body))
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
		assert.Equal(t, baseURL+"/L1/0.jpeg", storage.PublicURL("L1/0.jpeg"))
	})

	t.Run("list is scoped to the listing prefix", func(t *testing.T) {
		objects, err := storage.List(ctx, media.Prefix("L1"))
		require.NoError(t, err)
		keys := make([]string, 0, len(objects))
		for _, o := range objects {
			keys = append(keys, o.Key)
			assert.False(t, o.LastModified.IsZero())
		}
		sort.Strings(keys)
		assert.Equal(t, []string{"L1/0-thumb.jpeg", "L1/0.jpeg", "L1/1-thumb.jpeg", "L1/1.jpeg"}, keys)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, storage.Delete(ctx, media.ImagePath("L1", 1)))
		require.NoError(t, storage.Delete(ctx, media.ImagePath("L1", 1)))

		objects, err := storage.List(ctx, media.Prefix("L1"))
		require.NoError(t, err)
		assert.Len(t, objects, 3)
	})
}
