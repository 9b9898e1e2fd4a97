package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

func (a *app) statCmd() *cobra.Command {
	var (
		bucket string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Print the size of an object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			size, err := client.Size(cmd.Context(), bucket, key)
			if errors.IsNotFound(err) {
				return fmt.Errorf("%s/%s: not found", bucket, key)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\t%d\t%s\n", bucket, key, size, humanize.IBytes(uint64(size)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "bucket")
	cmd.Flags().StringVarP(&key, "key", "k", "", "object key")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
