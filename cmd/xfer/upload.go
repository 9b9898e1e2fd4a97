package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func (a *app) uploadCmd() *cobra.Command {
	var (
		bucket      string
		key         string
		contentType string
		metadata    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file as a multipart object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if key == "" {
				key = filepath.Base(path)
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			opts := []xfertypes.UploadOption{
				transfer.WithProgress(newProgressLogger(a.logger, "upload")),
			}
			if contentType != "" {
				opts = append(opts, transfer.WithContentType(contentType))
			}
			if len(metadata) > 0 {
				opts = append(opts, transfer.WithMetadata(metadata))
			}

			session, err := client.UploadFile(cmd.Context(), bucket, key, path, opts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s/%s (%s, %d parts) in %s\n",
				bucket, key,
				humanize.IBytes(uint64(session.Size)),
				len(session.Parts),
				session.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "destination bucket")
	cmd.Flags().StringVarP(&key, "key", "k", "", "object key (default: file name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (default: detected)")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "user metadata as key=value pairs")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}
