package main

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/stream"
)

func (a *app) downloadCmd() *cobra.Command {
	var (
		bucket string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "download FILE",
		Short: "Download an object by byte ranges and print its blake3 digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			file := stream.NewLazySink(func() (stream.Sink, error) {
				return stream.OpenFileSink(osfs.New("/"), path, stream.DefaultHighWaterMark)
			})
			sink := stream.NewDigestSink(file)

			_, err = client.DownloadRanged(cmd.Context(), bucket, key, sink,
				transfer.WithDownloadProgress(newProgressLogger(a.logger, "download")))
			if err != nil {
				_ = file.Discard()
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sink.Hex(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "source bucket")
	cmd.Flags().StringVarP(&key, "key", "k", "", "object key")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
