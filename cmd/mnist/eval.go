package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridl/2018-ComputeFest/internal/infer"
	"github.com/gridl/2018-ComputeFest/internal/mnist"
	"github.com/gridl/2018-ComputeFest/internal/train"
)

func evalCmd(dataDir *string) *cobra.Command {
	var netPath string
	var split string
	var batchSize int
	var showMatrix bool

	var cmd = &cobra.Command{
		Use:   "eval",
		Short: "Score a trained network on a dataset split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var imagesName, labelsName string
			switch split {
			case "test":
				imagesName, labelsName = mnist.TestImagesFile, mnist.TestLabelsFile
			case "train":
				imagesName, labelsName = mnist.TrainImagesFile, mnist.TrainLabelsFile
			default:
				return fmt.Errorf("unknown split %q (want train or test)", split)
			}

			samples, err := mnist.LoadSplit(*dataDir, imagesName, labelsName)
			if err != nil {
				return err
			}
			net, err := train.LoadNetwork(netPath)
			if err != nil {
				return err
			}
			confusion, err := infer.EvaluateBatch(net, samples, batchSize)
			if err != nil {
				return err
			}

			var out = cmd.OutOrStdout()
			fmt.Fprintf(out, "%v split: %v samples, accuracy %.4f\n",
				split, confusion.Total(), confusion.Accuracy())
			if showMatrix {
				fmt.Fprint(out, confusion.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&netPath, "net", "", "Trained network file")
	cmd.Flags().StringVar(&split, "split", "test", "Dataset split: train or test")
	cmd.Flags().IntVar(&batchSize, "batch-size", 256, "Evaluation batch size")
	cmd.Flags().BoolVar(&showMatrix, "confusion", false, "Print the confusion matrix")
	cmd.MarkFlagRequired("net")
	return cmd
}
