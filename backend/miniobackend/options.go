package miniobackend

import "time"

// Config holds the settings used to build the MinIO client.
type Config struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	Secure       bool
	Timeout      time.Duration
}

// Option is a functional option for configuring the MinIO backend.
type Option func(*Config)

// WithEndpoint sets the server address. A scheme prefix selects TLS
// ("https://") or plain HTTP ("http://"); a bare host:port keeps the
// WithSecure setting.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithCredentials sets static V4 credentials.
func WithCredentials(accessKey, secretKey, sessionToken string) Option {
	return func(c *Config) {
		c.AccessKey = accessKey
		c.SecretKey = secretKey
		c.SessionToken = sessionToken
	}
}

// WithRegion sets the bucket region, skipping region lookup requests.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithSecure enables TLS. Default is true.
func WithSecure(secure bool) Option {
	return func(c *Config) {
		c.Secure = secure
	}
}

// WithTimeout bounds how long each request waits for response headers.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}
