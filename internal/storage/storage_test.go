package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name, body string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestObjectName(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	name := objectName("Summer Sale!.PNG", ts)
	assert.True(t, strings.HasPrefix(name, "Summer_Sale_20240501_083000_"), name)
	assert.True(t, strings.HasSuffix(name, ".png"), name)

	assert.NotContains(t, objectName("../../etc/passwd", ts), "/")
	assert.True(t, strings.HasPrefix(objectName("???.mp4", ts), "file_"))
	assert.NotEqual(t, objectName("a.png", ts), objectName("a.png", ts))
}

func TestLocalStorage_Save(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir, "/uploads")

	url, err := ls.Save(context.Background(), fileHeader(t, "promo.mp4", "video-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/promo_"), url)

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
}

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestSpacesStorage_Save(t *testing.T) {
	client := &fakeS3{}
	ss := newSpacesStorage(client, "signage", "https://cdn.example.com/")

	url, err := ss.Save(context.Background(), fileHeader(t, "menu.jpg", "jpeg"))
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "signage", aws.StringValue(client.input.Bucket))
	assert.True(t, strings.HasPrefix(aws.StringValue(client.input.Key), "uploads/menu_"))
	assert.Equal(t, "image/jpeg", aws.StringValue(client.input.ContentType))
	assert.Equal(t, "public-read", aws.StringValue(client.input.ACL))
	assert.Equal(t, "jpeg", client.body)
	assert.Equal(t, "https://cdn.example.com/"+aws.StringValue(client.input.Key), url)
}
