package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/calebmorris/questdesk/config"
)

// FileInfo represents metadata about a stored file
type FileInfo struct {
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// StorageService defines the interface for quest attachment storage
type StorageService interface {
	// UploadFile uploads a file under the quest's key prefix and returns
	// its public URL and metadata
	UploadFile(ctx context.Context, file io.Reader, filename, contentType string, size int64, questID uuid.UUID) (*FileInfo, error)

	// DeleteFile deletes a file from storage by its public URL
	DeleteFile(ctx context.Context, fileURL string) error
}

// S3StorageService implements StorageService against an S3-compatible endpoint
type S3StorageService struct {
	client     *s3.Client
	bucketName string
	baseURL    string
}

// NewS3StorageService creates a new S3-compatible storage service
func NewS3StorageService(cfg *appconfig.Config) (*S3StorageService, error) {
	// Custom resolver so R2-style endpoints work
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: cfg.MediaStorageEndpoint,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.MediaStorageRegion),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.MediaStorageKey,
			cfg.MediaStorageSecret,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	baseURL := cfg.MediaStorageEndpoint
	if !strings.HasPrefix(baseURL, "https://") {
		baseURL = fmt.Sprintf("https://%s", baseURL)
	}
	baseURL = fmt.Sprintf("%s/%s", baseURL, cfg.MediaStorageBucket)

	return &S3StorageService{
		client:     client,
		bucketName: cfg.MediaStorageBucket,
		baseURL:    baseURL,
	}, nil
}

// UploadFile implements StorageService.UploadFile
func (s *S3StorageService) UploadFile(ctx context.Context, file io.Reader, filename, contentType string, size int64, questID uuid.UUID) (*FileInfo, error) {
	ext := filepath.Ext(filename)
	uniqueFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	// Object key prefixed by quest ID
	objectKey := fmt.Sprintf("%s/%s", questID.String(), uniqueFilename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return &FileInfo{
		URL:        fmt.Sprintf("%s/%s", s.baseURL, objectKey),
		Filename:   uniqueFilename,
		Size:       size,
		MimeType:   contentType,
		UploadedAt: time.Now(),
	}, nil
}

// DeleteFile implements StorageService.DeleteFile
func (s *S3StorageService) DeleteFile(ctx context.Context, fileURL string) error {
	objectKey := strings.TrimPrefix(fileURL, s.baseURL+"/")
	if objectKey == fileURL {
		return fmt.Errorf("file URL does not belong to this bucket: %s", fileURL)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
