package main

import (
	"github.com/spf13/cobra"

	"github.com/gridl/2018-ComputeFest/internal/mnist"
)

func fetchCmd(dataDir *string) *cobra.Command {
	var baseURL string
	var force bool

	var cmd = &cobra.Command{
		Use:   "fetch",
		Short: "Download the dataset archives",
		Long: "Download the four MNIST archives into the data directory, verifying\n" +
			"each against its published SHA-256 digest. Archives that already\n" +
			"verify are left alone.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mnist.Fetch(cmd.Context(), mnist.FetchOptions{
				BaseURL: baseURL,
				Dir:     *dataDir,
				Force:   force,
			})
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", mnist.DefaultBaseURL, "Mirror to download from")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download archives that already verify")
	return cmd
}
