package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// S3Store writes objects to an AWS S3 (or compatible) bucket.
type S3Store struct {
	client   *s3.Client
	awscfg   *aws.Config
	bucket   string
	prefix   string
	region   string
	roleArn  string
	endpoint string
}

type S3Option func(*S3Store)

// WithAWSConfig uses cfg instead of the default credential chain.
func WithAWSConfig(cfg aws.Config) S3Option {
	return func(s *S3Store) {
		s.awscfg = &cfg
	}
}

func WithRegion(region string) S3Option {
	return func(s *S3Store) {
		if region != "" {
			s.region = region
		}
	}
}

// WithRoleArn assumes role before writing objects.
func WithRoleArn(role string) S3Option {
	return func(s *S3Store) {
		s.roleArn = role
	}
}

// WithEndpoint targets an S3 compatible endpoint using path style urls.
func WithEndpoint(endpoint string) S3Option {
	return func(s *S3Store) {
		s.endpoint = endpoint
	}
}

func NewS3Store(ctx context.Context, bucket, prefix string, opts ...S3Option) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 archive bucket is not set")
	}

	store := &S3Store{
		bucket: bucket,
		prefix: prefix,
		region: "us-east-1",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.awscfg == nil {
		awscfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(store.region))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		store.awscfg = &awscfg
	}

	if store.roleArn != "" {
		store.awscfg.Credentials = aws.NewCredentialsCache(
			stscreds.NewAssumeRoleProvider(sts.NewFromConfig(
				*store.awscfg,
				func(o *sts.Options) { o.Region = store.region },
			), store.roleArn),
		)
		slog.Info("assuming aws role for archive uploads", "role", store.roleArn)
	}

	store.client = s3.NewFromConfig(*store.awscfg, func(o *s3.Options) {
		o.Region = store.region
		if store.endpoint != "" {
			o.BaseEndpoint = aws.String(store.endpoint)
			o.UsePathStyle = true
		}
	})

	return store, nil
}

func (s *S3Store) Put(ctx context.Context, key string, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(s.prefix, key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put failed: %w", err)
	}
	return nil
}
