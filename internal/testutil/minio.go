package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

// MinioContainer wraps a MinIO server container.
type MinioContainer struct {
	container *tcminio.MinioContainer
	endpoint  string
}

// NewMinioContainer creates and starts a new MinIO container.
func NewMinioContainer(ctx context.Context) (*MinioContainer, error) {
	container, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
	if err != nil {
		return nil, fmt.Errorf("failed to start MinIO container: %w", err)
	}

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get MinIO endpoint: %w", err)
	}

	return &MinioContainer{container: container, endpoint: endpoint}, nil
}

// Endpoint returns the host:port of the MinIO API.
func (c *MinioContainer) Endpoint() string {
	return c.endpoint
}

// AccessKey returns the root user of the container.
func (c *MinioContainer) AccessKey() string {
	return c.container.Username
}

// SecretKey returns the root password of the container.
func (c *MinioContainer) SecretKey() string {
	return c.container.Password
}

// Terminate stops and removes the container.
func (c *MinioContainer) Terminate(ctx context.Context) error {
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}

// SetupMinio starts MinIO, creates bucket and registers cleanup.
func SetupMinio(t *testing.T, bucket string) *MinioContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := NewMinioContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to create MinIO container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MinIO container: %v", err)
		}
	})

	client, err := minio.New(container.Endpoint(), &minio.Options{
		Creds: credentials.NewStaticV4(container.AccessKey(), container.SecretKey(), ""),
	})
	if err != nil {
		t.Fatalf("Failed to create MinIO client: %v", err)
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		t.Fatalf("Failed to create bucket %s: %v", bucket, err)
	}
	return container
}
