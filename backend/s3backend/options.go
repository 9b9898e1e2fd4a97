package s3backend

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Config holds the settings used to build the underlying S3 client.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
	Timeout         time.Duration
	MaxRetries      int
	CustomAWSConfig *aws.Config
}

// Option is a functional option for configuring the S3 backend.
type Option func(*Config)

// WithRegion sets the AWS region.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithCredentials uses static credentials instead of the default credential chain.
func WithCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(c *Config) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(c *Config) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithTimeout sets the HTTP timeout for individual S3 requests.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries sets the maximum number of attempts the SDK makes per request.
// Default is 3.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

// WithAWSConfig uses a prepared AWS configuration instead of loading the default one.
func WithAWSConfig(cfg *aws.Config) Option {
	return func(c *Config) {
		c.CustomAWSConfig = cfg
	}
}
