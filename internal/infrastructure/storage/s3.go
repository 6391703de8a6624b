// Package storage keeps bill attachments in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/wekeepgrowing/billsync/internal/config"
	"go.uber.org/zap"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3AttachmentStore uploads bill PDFs. Keys depend only on the bill
// identity, so a re-commit overwrites the same object.
type S3AttachmentStore struct {
	client objectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3Client builds an S3 client from static credentials. A custom
// endpoint targets S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

func NewS3AttachmentStore(client objectPutter, bucket, prefix string, logger *zap.Logger) *S3AttachmentStore {
	return &S3AttachmentStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Put stores a PDF and returns its object key.
func (s *S3AttachmentStore) Put(ctx context.Context, propertyID, supplierID, billNumber string, pdf []byte) (string, error) {
	key := s.Key(propertyID, supplierID, billNumber, pdf)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment %s: %w", key, err)
	}

	s.logger.Debug("Attachment stored", zap.String("key", key), zap.Int("bytes", len(pdf)))
	return key, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key is prefix/property/supplier/name.pdf where name is the bill number
// or, without one, a digest of the content.
func (s *S3AttachmentStore) Key(propertyID, supplierID, billNumber string, pdf []byte) string {
	name := strings.Trim(unsafeKeyChars.ReplaceAllString(billNumber, "_"), "_")
	if name == "" {
		sum := sha256.Sum256(pdf)
		name = hex.EncodeToString(sum[:12])
	}
	return path.Join(s.prefix, propertyID, supplierID, name+".pdf")
}
