package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sales-dashboard/internal/config"
)

// objectAPI is the part of the S3 client the source uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Source reads a CSV object from S3 or an S3-compatible store such as MinIO.
type S3Source struct {
	client objectAPI
	bucket string
	key    string
}

// NewS3Source builds a client from the default credential chain. Endpoint and
// PathStyle in cfg are for S3-compatible stores.
func NewS3Source(ctx context.Context, bucket, key string, cfg config.S3Config) (*S3Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return newS3Source(client, bucket, key), nil
}

func newS3Source(client objectAPI, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.key }

func (s *S3Source) ModTime(ctx context.Context) (time.Time, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("head object: %w", err)
	}
	return aws.ToTime(out.LastModified), nil
}

func (s *S3Source) Records(ctx context.Context) (RecordReader, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return newCSVRecords(out.Body), nil
}
