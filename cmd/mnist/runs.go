package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gridl/2018-ComputeFest/internal/runs"
)

func runsCmd(dataDir *string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "runs",
		Short: "List and inspect recorded training runs",
	}
	cmd.AddCommand(runsListCmd(dataDir))
	cmd.AddCommand(runsShowCmd(dataDir))
	return cmd
}

func runsListCmd(dataDir *string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "list",
		Short: "List training runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := runs.NewRegistry(*dataDir).List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			var w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tEPOCHS\tVAL ACC\tTEST ACC\tNET")
			for _, record := range records {
				fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n",
					record.ID[:8],
					record.StartedAt.Local().Format("2006-01-02 15:04"),
					len(record.Result.Epochs),
					formatAcc(bestValAcc(record)),
					formatAcc(record.TestAccuracy),
					record.Result.NetPath)
			}
			return w.Flush()
		},
	}
	return cmd
}

func runsShowCmd(dataDir *string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "show <run id>",
		Short: "Print the full record of a run (a unique id prefix works)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := runs.NewRegistry(*dataDir).Get(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}

func bestValAcc(record runs.Record) float64 {
	if record.Result.BestEpoch == 0 {
		return 0
	}
	return record.Result.Epochs[record.Result.BestEpoch-1].ValAcc
}

func formatAcc(acc float64) string {
	if acc == 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f", acc)
}
