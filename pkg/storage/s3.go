package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxPosterFileSize is the maximum allowed poster size (5MB).
	MaxPosterFileSize = 5 * 1024 * 1024
	// FolderPosters is the S3 prefix for poster objects.
	FolderPosters = "posters"
)

// Allowed poster MIME types and extensions.
var (
	AllowedPosterTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	AllowedPosterExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	PostersBucket        string
	PresignExpireMinutes int
}

// S3 stores event posters.
type S3 struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	cfg      S3Config
}

// NewS3 creates an S3 client. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
		logger.Info("S3 client using static credentials",
			zap.String("region", cfg.Region), zap.String("bucket", cfg.PostersBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = manager.MinUploadPartSize
			u.Concurrency = 2
		}),
		cfg: cfg,
	}, nil
}

// ValidatePosterType reports whether the content type or the filename extension is an allowed image.
// A declared content type must itself be allowed.
func ValidatePosterType(contentType, filename string) bool {
	if contentType != "" {
		_, ok := AllowedPosterTypes[strings.ToLower(contentType)]
		return ok
	}
	_, ok := AllowedPosterExtensions[strings.ToLower(path.Ext(filename))]
	return ok
}

// ContentTypeForFilename returns the MIME type for a poster filename extension.
func ContentTypeForFilename(filename string) string {
	if ct, ok := AllowedPosterExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// PosterKey returns a fresh object key: posters/{user_id}/{uuid}{ext}.
// The extension follows the content type when known, else the filename.
func PosterKey(userID int64, filename, contentType string) string {
	ext, ok := AllowedPosterTypes[strings.ToLower(contentType)]
	if !ok {
		ext = strings.ToLower(path.Ext(filename))
		if ext == ".jpeg" {
			ext = ".jpg"
		}
	}
	return path.Join(FolderPosters, fmt.Sprint(userID), uuid.NewString()+ext)
}

// IsPosterKey reports whether key lies under the poster prefix.
func IsPosterKey(key string) bool {
	return strings.HasPrefix(key, FolderPosters+"/") && !strings.Contains(key, "..")
}

// PosterKeyOwnedBy reports whether key was issued to userID by PosterKey.
func PosterKeyOwnedBy(key string, userID int64) bool {
	return IsPosterKey(key) && strings.HasPrefix(key, path.Join(FolderPosters, fmt.Sprint(userID))+"/")
}

// Bucket returns the posters bucket name.
func (s *S3) Bucket() string { return s.cfg.PostersBucket }

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// PresignPosterUpload returns a pre-signed PUT URL for a direct browser upload.
func (s *S3) PresignPosterUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.PostersBucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

// PublicObjectURL returns the unsigned URL of a poster object.
func (s *S3) PublicObjectURL(key string) string {
	return PublicURL(s.cfg.PostersBucket, s.cfg.Region, key)
}

// PublicURL builds the virtual-hosted style URL of an object.
func PublicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// UploadPoster streams body to the posters bucket as a publicly readable object and returns its URL.
func (s *S3) UploadPoster(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.PostersBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return s.PublicObjectURL(key), nil
}

// DeletePoster removes a poster object. Deleting a missing key succeeds.
func (s *S3) DeletePoster(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.PostersBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
