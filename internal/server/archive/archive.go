// Package archive exports a user's annotations to S3-compatible object
// storage before they are wiped from the database.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/google/uuid"
)

// Archiver stores a snapshot of records and returns its object key. An empty
// key means nothing was stored.
type Archiver interface {
	Archive(ctx context.Context, userID string, records []models.AnnotationPatch) (string, error)
}

// Nop is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, []models.AnnotationPatch) (string, error) {
	return "", nil
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Options configure the S3 client. AccessKey/SecretKey are static
// credentials (MinIO root user and password in development).
type Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
}

type S3Archiver struct {
	client putObjectAPI
	bucket string
	now    func() time.Time
}

func NewS3Archiver(ctx context.Context, o Options) (*S3Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: o.Bucket, now: time.Now}, nil
}

// StorageKey lays snapshots out per user and day.
func StorageKey(userID string, d time.Time) string {
	return fmt.Sprintf("archive/%s/%d/%d/%d/%v.json", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

type snapshot struct {
	UserID     string                   `json:"user_id"`
	ExportedAt time.Time                `json:"exported_at"`
	Records    []models.AnnotationPatch `json:"records"`
}

// Archive uploads records as one JSON document. No object is written for an
// empty set.
func (a *S3Archiver) Archive(ctx context.Context, userID string, records []models.AnnotationPatch) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	now := a.now().UTC()
	body, err := json.Marshal(snapshot{UserID: userID, ExportedAt: now, Records: records})
	if err != nil {
		return "", err
	}

	key := StorageKey(userID, now)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive upload: %w", err)
	}
	return key, nil
}
