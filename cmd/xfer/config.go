package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend/miniobackend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend/s3backend"
)

const (
	backendS3    = "s3"
	backendMinio = "minio"
)

// settings is the resolved CLI configuration.
type settings struct {
	Backend     string
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	PathStyle   bool
	Insecure    bool
	PartSize    int64
	Concurrency int
	Timeout     time.Duration
}

// loadConfig layers the config file, XFER_* environment variables and
// flags into the app's viper instance. Flags win over env, env over file.
func (a *app) loadConfig(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
	} else {
		home, _ := os.UserHomeDir()
		a.v.AddConfigPath(filepath.Join(home, ".config", "xfer"))
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config read '%s': %w", a.v.ConfigFileUsed(), err)
		}
	}

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	a.v.SetEnvPrefix("XFER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	return nil
}

func (a *app) settings() (*settings, error) {
	partSize, err := humanize.ParseBytes(a.v.GetString("part-size"))
	if err != nil {
		return nil, fmt.Errorf("invalid part size %q: %w", a.v.GetString("part-size"), err)
	}

	s := &settings{
		Backend:     strings.ToLower(a.v.GetString("backend")),
		Endpoint:    a.v.GetString("endpoint"),
		Region:      a.v.GetString("region"),
		AccessKey:   a.v.GetString("access-key"),
		SecretKey:   a.v.GetString("secret-key"),
		PathStyle:   a.v.GetBool("path-style"),
		Insecure:    a.v.GetBool("insecure"),
		PartSize:    int64(partSize),
		Concurrency: a.v.GetInt("concurrency"),
		Timeout:     a.v.GetDuration("timeout"),
	}

	switch s.Backend {
	case backendS3, backendMinio:
	default:
		return nil, fmt.Errorf("unknown backend %q", s.Backend)
	}
	return s, nil
}

// newBackend builds the storage backend named by s.Backend.
func newBackend(ctx context.Context, s *settings) (backend.Backend, error) {
	switch s.Backend {
	case backendMinio:
		if s.Endpoint == "" {
			return nil, errors.New("minio backend requires --endpoint")
		}
		opts := []miniobackend.Option{
			miniobackend.WithEndpoint(s.Endpoint),
			miniobackend.WithSecure(!s.Insecure),
			miniobackend.WithCredentials(s.AccessKey, s.SecretKey, ""),
			miniobackend.WithTimeout(s.Timeout),
		}
		if s.Region != "" {
			opts = append(opts, miniobackend.WithRegion(s.Region))
		}
		return miniobackend.New(opts...)

	case backendS3:
		opts := []s3backend.Option{
			s3backend.WithForcePathStyle(s.PathStyle),
			s3backend.WithTimeout(s.Timeout),
		}
		if s.Region != "" {
			opts = append(opts, s3backend.WithRegion(s.Region))
		}
		if s.Endpoint != "" {
			endpoint := s.Endpoint
			if !strings.Contains(endpoint, "://") {
				scheme := "https://"
				if s.Insecure {
					scheme = "http://"
				}
				endpoint = scheme + endpoint
			}
			opts = append(opts, s3backend.WithEndpoint(endpoint))
		}
		if s.AccessKey != "" {
			opts = append(opts, s3backend.WithCredentials(s.AccessKey, s.SecretKey, ""))
		}
		return s3backend.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown backend %q", s.Backend)
	}
}
