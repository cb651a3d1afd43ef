package file

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a reachable MinIO, e.g. ATOM_TEST_MINIO_ENDPOINT=localhost:9000
// with MINIO_ROOT_USER and MINIO_ROOT_PASSWORD.
func newMinIOTestStore(t *testing.T) (*MinIOStore, string) {
	t.Helper()

	endpoint := os.Getenv("ATOM_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("ATOM_TEST_MINIO_ENDPOINT not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(os.Getenv("MINIO_ROOT_USER"), os.Getenv("MINIO_ROOT_PASSWORD"), ""),
	})
	require.NoError(t, err)

	ctx := context.Background()
	bucket := "atom-it-" + uuid.NewString()[:8]
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))

	t.Cleanup(func() {
		for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
			_ = client.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{})
		}
		_ = client.RemoveBucket(ctx, bucket)
	})

	return NewMinIOStore(client), bucket
}

func TestMinIOStoreRoundTrip(t *testing.T) {
	store, bucket := newMinIOTestStore(t)
	ctx := context.Background()
	content := []byte("integration payload")

	service := NewService(store, 1)
	stored, err := service.Store(ctx, bucket, "notes.txt", bytes.NewReader(content), int64(len(content)), "text/plain")
	require.NoError(t, err)
	assert.EqualValues(t, len(content), stored.SizeBytes)

	_, err = store.PatchMetadata(ctx, bucket, "notes.txt", map[string]string{"processed": "true", "original_filename": "notes.txt"})
	require.NoError(t, err)

	info, err := store.Stat(ctx, bucket, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "true", info.Metadata["processed"])
	assert.Equal(t, "text/plain", info.ContentType)

	u, err := store.SignGetURL(ctx, bucket, "notes.txt", time.Hour)
	require.NoError(t, err)

	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestMinIOStoreMissingObject(t *testing.T) {
	store, bucket := newMinIOTestStore(t)

	_, err := store.Stat(context.Background(), bucket, "absent.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
