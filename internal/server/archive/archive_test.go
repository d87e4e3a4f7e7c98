package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

func fixedNow() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }

func TestArchive_UploadsSnapshot(t *testing.T) {
	fake := &fakeS3{}
	a := &S3Archiver{client: fake, bucket: "canvasser", now: fixedNow}

	records := []models.AnnotationPatch{
		{RemoteID: "r1", HouseNumber: "1", Street: "Calle Mayor", City: "Madrid", Annotation: models.Annotation{Status: models.StatusSale}},
	}
	key, err := a.Archive(context.Background(), "u1", records)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "archive/u1/2024/3/9/"), key)
	assert.True(t, strings.HasSuffix(key, ".json"), key)
	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "canvasser", aws.ToString(fake.inputs[0].Bucket))
	assert.Equal(t, key, aws.ToString(fake.inputs[0].Key))
	assert.Equal(t, "application/json", aws.ToString(fake.inputs[0].ContentType))

	var got snapshot
	require.NoError(t, json.Unmarshal(fake.bodies[0], &got))
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.ExportedAt.Equal(fixedNow()))
	assert.Equal(t, records, got.Records)
}

func TestArchive_EmptySetWritesNothing(t *testing.T) {
	fake := &fakeS3{}
	a := &S3Archiver{client: fake, bucket: "b", now: fixedNow}

	key, err := a.Archive(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Empty(t, fake.inputs)
}

func TestArchive_UploadError(t *testing.T) {
	a := &S3Archiver{client: &fakeS3{err: errors.New("503")}, bucket: "b", now: fixedNow}

	_, err := a.Archive(context.Background(), "u1", []models.AnnotationPatch{{HouseNumber: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive upload")
}

func TestStorageKey_Unique(t *testing.T) {
	d := fixedNow()
	assert.NotEqual(t, StorageKey("u", d), StorageKey("u", d))
}

func TestNop(t *testing.T) {
	key, err := Nop{}.Archive(context.Background(), "u", []models.AnnotationPatch{{}})
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestNewS3Archiver_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-south-2", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minio", creds.AccessKeyID)
		assert.Equal(t, "minio-secret", creds.SecretAccessKey)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &fakeS3{}
	}

	a, err := NewS3Archiver(context.Background(), Options{
		Region: "eu-south-2", AccessKey: "minio", SecretKey: "minio-secret",
		Bucket: "canvasser", BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "canvasser", a.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3Archiver(context.Background(), Options{})
	require.EqualError(t, err, "load-fail")
}
