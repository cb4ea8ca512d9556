package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridl/2018-ComputeFest/internal/infer"
	"github.com/gridl/2018-ComputeFest/internal/train"
)

func inspectCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "inspect <network file>",
		Short: "Print the topology and size of a saved network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := train.LoadNetwork(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), infer.Summary(n))
			return nil
		},
	}
	return cmd
}
