// Package storage uploads files to S3-compatible object storage and hands
// out presigned download URLs.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/dmitrijs2005/meanstack/internal/server/config"
)

// CacheControl is set on every uploaded object.
const CacheControl = "public, max-age=31536000"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Storage is what the image pipeline needs from object storage.
type Storage interface {
	Key(ref, name string) string
	Upload(ctx context.Context, key, localPath, contentType string) error
	SignedURL(ctx context.Context, key string) (string, error)
}

type S3Storage struct {
	cfg sc.Storage

	mu      sync.Mutex
	client  *s3.Client
	presign *s3.PresignClient
}

func NewS3Storage(cfg sc.Storage) *S3Storage {
	return &S3Storage{cfg: cfg}
}

// clients builds the S3 and presign clients on first use and reuses them
// afterwards.
func (s *S3Storage) clients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, s.presign, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(s.cfg.Region)}
	if s.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	s.client = client
	s.presign = newS3PresignClient(client)
	return s.client, s.presign, nil
}

// Key places name under the configured base ref and the caller's ref, for
// example "dev/users/<id>/photo.jpg-x100".
func (s *S3Storage) Key(ref, name string) string {
	return strings.TrimPrefix(path.Join(s.cfg.BaseRef, ref, filepath.Base(name)), "/")
}

func (s *S3Storage) Upload(ctx context.Context, key, localPath, contentType string) error {
	client, _, err := s.clients(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(localPath))
	}

	in := &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         f,
		CacheControl: aws.String(CacheControl),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := putObject(client, ctx, in); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) SignedURL(ctx context.Context, key string) (string, error) {
	_, pc, err := s.clients(ctx)
	if err != nil {
		return "", err
	}

	ttl := s.cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
