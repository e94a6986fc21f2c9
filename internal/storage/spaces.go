package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

// SpacesStorage uploads to an S3 compatible bucket and returns CDN URLs.
type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	cdnURL string
	now    func() time.Time
}

type SpacesConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	CDNURL    string
	AccessKey string
	SecretKey string
}

func NewSpacesStorage(cfg SpacesConfig) (*SpacesStorage, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("create spaces session: %w", err)
	}
	cdn := cfg.CDNURL
	if cdn == "" {
		cdn = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return newSpacesStorage(s3.New(sess), cfg.Bucket, cdn), nil
}

func newSpacesStorage(client s3iface.S3API, bucket, cdnURL string) *SpacesStorage {
	return &SpacesStorage{client: client, bucket: bucket, cdnURL: strings.TrimSuffix(cdnURL, "/"), now: time.Now}
}

func (ss *SpacesStorage) Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	name := objectName(fileHeader.Filename, ss.now())
	key := "uploads/" + name

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(contentTypeFor(name)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload file to Spaces")
		return "", fmt.Errorf("upload to spaces: %w", err)
	}

	return ss.cdnURL + "/" + key, nil
}
