package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
)

// app carries state shared by all subcommands.
type app struct {
	v      *viper.Viper
	logger *slog.Logger

	// newBackend builds the storage backend from resolved settings.
	newBackend func(ctx context.Context, s *settings) (backend.Backend, error)
}

func newApp() *app {
	return &app{
		v:          viper.New(),
		logger:     slog.New(slog.DiscardHandler),
		newBackend: newBackend,
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xfer",
		Short: "Chunked object transfer for S3-compatible stores",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			level, err := parseLevel(a.v.GetString("log-level"))
			if err != nil {
				return err
			}
			a.logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.TimeOnly,
				NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
			}))
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.SortFlags = false
	pf.StringP("config", "c", "", "config file (default $HOME/.config/xfer/config.yaml)")
	pf.String("backend", backendS3, "storage backend: s3 or minio")
	pf.String("endpoint", "", "custom endpoint URL")
	pf.String("region", "", "bucket region")
	pf.String("access-key", "", "static access key")
	pf.String("secret-key", "", "static secret key")
	pf.Bool("path-style", false, "use path-style addressing")
	pf.Bool("insecure", false, "disable TLS")
	pf.String("part-size", "8MiB", "part size for uploads and range size for downloads")
	pf.Int("concurrency", 1, "upload parts in flight")
	pf.Duration("timeout", 0, "per-request timeout")
	pf.String("log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(a.uploadCmd(), a.downloadCmd(), a.statCmd())
	return cmd
}

// client builds a transfer client from the resolved settings.
func (a *app) client(ctx context.Context) (*transfer.Client, error) {
	s, err := a.settings()
	if err != nil {
		return nil, err
	}

	b, err := a.newBackend(ctx, s)
	if err != nil {
		return nil, err
	}

	return transfer.New(b,
		transfer.WithPartSize(s.PartSize),
		transfer.WithConcurrency(s.Concurrency),
		transfer.WithLogger(a.logger),
	)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
