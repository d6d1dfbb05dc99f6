package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket, f.key, f.contentType = *in.Bucket, *in.Key, *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &manager.UploadOutput{}, nil
}

type fakeObjects struct {
	deleted []string
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(up *fakeUploader, obj *fakeObjects) *PreviewStore {
	return &PreviewStore{
		bucket:        "previews",
		presignExpiry: time.Minute,
		objects:       obj,
		uploader:      up,
		presign: func(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
			return "https://s3.local/" + bucket + "/" + key + "?exp=" + expiry.String(), nil
		},
	}
}

func TestPreviewStore_PutUploadsAndPresigns(t *testing.T) {
	up := &fakeUploader{}
	store := newTestStore(up, &fakeObjects{})

	url, err := store.Put(context.Background(), "w1/document/abc", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "previews", up.bucket)
	assert.Equal(t, "w1/document/abc", up.key)
	assert.Equal(t, "image/png", up.contentType)
	assert.Equal(t, []byte("png-bytes"), up.body)
	assert.Equal(t, "https://s3.local/previews/w1/document/abc?exp=1m0s", url)
}

func TestPreviewStore_PutUploadFailure(t *testing.T) {
	store := newTestStore(&fakeUploader{err: errors.New("access denied")}, &fakeObjects{})

	_, err := store.Put(context.Background(), "k", "image/png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 upload")
}

func TestPreviewStore_ReleaseDeletesObject(t *testing.T) {
	obj := &fakeObjects{}
	store := newTestStore(&fakeUploader{}, obj)

	require.NoError(t, store.Release(context.Background(), "w1/smile-face/xyz"))
	assert.Equal(t, []string{"w1/smile-face/xyz"}, obj.deleted)
}
