package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"
	"github.com/modelstage/modelstage/internal/logger"
	"github.com/modelstage/modelstage/pkg/storage"
	"github.com/modelstage/modelstage/pkg/storage/local"
	"github.com/modelstage/modelstage/pkg/storage/s3"
)

// s3Options are the S3-specific settings decoded from the storage.s3
// config map.
type s3Options struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Anonymous       bool   `mapstructure:"anonymous"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// CreateBackend parses a model root URI and constructs the backend variant
// its scheme selects.
//
// Credentials and client configuration are acquired once here and are
// read-only for the backend's lifetime; there is no runtime credential
// rotation. Any conforming backend can be substituted without changing the
// fetcher or resolver logic.
func CreateBackend(ctx context.Context, cfg *StorageConfig, uri string) (storage.Backend, storage.Path, error) {
	root, err := storage.ParsePath(uri)
	if err != nil {
		return nil, storage.Path{}, err
	}

	switch root.Scheme {
	case storage.SchemeS3:
		backend, err := createS3Backend(ctx, cfg.S3)
		if err != nil {
			return nil, storage.Path{}, err
		}
		return backend, root, nil
	case storage.SchemeFile, "":
		return local.New(), root, nil
	default:
		return nil, storage.Path{}, fmt.Errorf("%q: %w", root.Scheme, storage.ErrUnsupportedScheme)
	}
}

// createS3Backend builds the S3 client from the decoded options.
func createS3Backend(ctx context.Context, options map[string]any) (*s3.S3Backend, error) {
	var opts s3Options
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 storage config: %w", err)
	}

	if opts.Region == "" {
		return nil, fmt.Errorf("S3 storage: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	// Custom endpoint for S3-compatible stores (MinIO, Localstack, etc.).
	if opts.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               opts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Credential mode was resolved once at config load: anonymous for
	// public model repositories, static keys, or the default chain.
	switch {
	case opts.Anonymous:
		configOptions = append(configOptions,
			awsConfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case opts.AccessKeyID != "" && opts.SecretAccessKey != "":
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awsS3.NewFromConfig(awsCfg, func(o *awsS3.Options) {
		// Path-style addressing for MinIO/Localstack compatibility.
		if opts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 backend initialized: region=%s anonymous=%v endpoint=%s",
		opts.Region, opts.Anonymous, opts.Endpoint)

	return s3.New(client), nil
}
