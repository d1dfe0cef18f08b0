package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/rs/zerolog"
)

// S3Mirror copies local backups to an S3 bucket
type S3Mirror struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
	logger   zerolog.Logger
}

// NewS3Mirror creates a mirror using the default AWS credential chain
func NewS3Mirror(bucket, region string, logger zerolog.Logger) (*S3Mirror, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewS3MirrorWithUploader(s3manager.NewUploader(sess), bucket, logger), nil
}

// NewS3MirrorWithUploader creates a mirror around an existing uploader
func NewS3MirrorWithUploader(uploader s3manageriface.UploaderAPI, bucket string, logger zerolog.Logger) *S3Mirror {
	return &S3Mirror{
		uploader: uploader,
		bucket:   bucket,
		prefix:   "backups",
		logger:   logger.With().Str("component", "s3_mirror").Logger(),
	}
}

// Upload sends the backup file at localPath to the bucket and returns its object key
func (m *S3Mirror) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	key := path.Join(m.prefix, filepath.Base(localPath))
	_, err = m.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("bucket", m.bucket).
			Str("key", key).
			Msg("Failed to upload backup")
		return "", fmt.Errorf("failed to upload backup to s3: %w", err)
	}

	m.logger.Info().
		Str("bucket", m.bucket).
		Str("key", key).
		Msg("Backup uploaded")

	return key, nil
}
