// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biologist/catalog-backend/internal/config"
	"github.com/biologist/catalog-backend/internal/importer"
)

const s3Scheme = "s3://"

// StorageService reads import spreadsheets from the local filesystem or S3
// and archives uploaded ones.
type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

// SourceFile is an import source loaded into memory.
type SourceFile struct {
	// Ref is the location the file was read from, local path or s3:// URL.
	Ref  string
	Name string
	Data []byte
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// NewStorageServiceWithClient wires an existing S3 client.
func NewStorageServiceWithClient(config *config.Config, client s3iface.S3API) *StorageService {
	return &StorageService{s3Client: client, config: config}
}

// Open loads an import source. Any failure is reported as
// importer.ErrSourceUnreadable.
func (s *StorageService) Open(ctx context.Context, ref string) (*SourceFile, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty source", importer.ErrSourceUnreadable)
	}

	if strings.HasPrefix(ref, s3Scheme) {
		return s.openS3(ctx, ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", importer.ErrSourceUnreadable, err)
	}

	return &SourceFile{Ref: ref, Name: filepath.Base(ref), Data: data}, nil
}

func (s *StorageService) openS3(ctx context.Context, ref string) (*SourceFile, error) {
	if s.s3Client == nil {
		return nil, fmt.Errorf("%w: S3 client not configured for %s", importer.ErrSourceUnreadable, ref)
	}

	bucket, key, ok := parseS3Ref(ref)
	if !ok {
		return nil, fmt.Errorf("%w: malformed S3 location %q", importer.ErrSourceUnreadable, ref)
	}

	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download %s: %w", importer.ErrSourceUnreadable, ref, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", importer.ErrSourceUnreadable, ref, err)
	}

	return &SourceFile{Ref: ref, Name: filepath.Base(key), Data: data}, nil
}

// Archive keeps a copy of an uploaded spreadsheet and returns a reference
// that Open accepts.
func (s *StorageService) Archive(ctx context.Context, originalName string, data []byte) (string, error) {
	filename := s.generateFileName(originalName, s.config.AWS.UploadPrefix)

	if s.s3Client != nil && s.config.AWS.S3Bucket != "" {
		_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.config.AWS.S3Bucket),
			Key:           aws.String(filename),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload to S3: %w", err)
		}
		return s3Scheme + s.config.AWS.S3Bucket + "/" + filename, nil
	}

	path := filepath.Join(s.config.Import.UploadDir, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	logrus.WithField("path", path).Debug("Stored import upload locally")
	return path, nil
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	// Generate UUID for uniqueness
	id := uuid.New()

	// Get file extension
	ext := strings.ToLower(filepath.Ext(originalName))

	// Create filename with timestamp and UUID
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", strings.Trim(folder, "/"), filename)
	}

	return filename
}

// parseS3Ref splits s3://bucket/key/with/slashes.
func parseS3Ref(ref string) (bucket, key string, ok bool) {
	rest := strings.TrimPrefix(ref, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
