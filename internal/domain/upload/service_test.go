package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func memFile(name string, body []byte) File {
	return File{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		},
	}
}

func uploadConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxSize:           1 << 20,
			MaxFiles:          4,
			AllowedExtensions: []string{"png", "jpg"},
		},
	}
}

func TestUploadImagesToLocalStorage(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(root, "/uploads/")
	require.NoError(t, err)
	svc := NewService(storage, uploadConfig(), logger.Discard())

	objects, err := svc.UploadImages(context.Background(), "products", []File{
		memFile("a.png", pngHeader),
		memFile("b.PNG", pngHeader),
	})
	require.NoError(t, err)
	require.Len(t, objects, 2)

	for _, obj := range objects {
		assert.True(t, strings.HasPrefix(obj.Key, "products/"))
		assert.Equal(t, "/uploads/"+obj.Key, obj.URL)
		assert.Equal(t, "image/png", obj.ContentType)
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(obj.Key)))
	}
	assert.NotEqual(t, objects[0].Key, objects[1].Key)

	svc.Delete(context.Background(), objects[0].Key)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(objects[0].Key)))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadImagesValidation(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	svc := NewService(storage, uploadConfig(), logger.Discard())
	ctx := context.Background()

	_, err = svc.UploadImages(ctx, "products", []File{memFile("doc.pdf", pngHeader)})
	assert.ErrorIs(t, err, apperror.ErrInvalid)

	_, err = svc.UploadImages(ctx, "products", []File{memFile("fake.png", []byte("plain text, not an image"))})
	assert.ErrorIs(t, err, apperror.ErrInvalid)

	many := make([]File, 5)
	for i := range many {
		many[i] = memFile("x.png", pngHeader)
	}
	_, err = svc.UploadImages(ctx, "products", many)
	assert.ErrorIs(t, err, apperror.ErrInvalid)

	objects, err := svc.UploadImages(ctx, "products", nil)
	assert.NoError(t, err)
	assert.Empty(t, objects)
}

type flakyStorage struct {
	mu   sync.Mutex
	puts int
}

func (f *flakyStorage) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.puts == 2 {
		return "", errors.New("media host unavailable")
	}
	return "https://cdn.test/" + key, nil
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error { return nil }

func TestUploadImagesFailsWhenAnyUploadFails(t *testing.T) {
	svc := NewService(&flakyStorage{}, uploadConfig(), logger.Discard())

	_, err := svc.UploadImages(context.Background(), "products", []File{
		memFile("a.png", pngHeader),
		memFile("b.png", pngHeader),
		memFile("c.png", pngHeader),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media host unavailable")
}

type fakeS3 struct {
	s3iface.S3API
	put    *s3.PutObjectInput
	delete *s3.DeleteObjectInput
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.delete = in
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	client := &fakeS3{}
	storage := NewS3StorageWithClient(client, config.StorageConfig{S3Bucket: "media", S3Region: "eu-west-1"})

	url, err := storage.Put(context.Background(), "products/a.png", "image/png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/products/a.png", url)
	assert.Equal(t, "media", aws.StringValue(client.put.Bucket))
	assert.Equal(t, s3.ObjectCannedACLPublicRead, aws.StringValue(client.put.ACL))

	require.NoError(t, storage.Delete(context.Background(), "products/a.png"))
	assert.Equal(t, "products/a.png", aws.StringValue(client.delete.Key))

	cdn := NewS3StorageWithClient(client, config.StorageConfig{S3Bucket: "media", CDNBaseURL: "https://cdn.example.com/"})
	url, err = cdn.Put(context.Background(), "k.png", "image/png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k.png", url)
}
