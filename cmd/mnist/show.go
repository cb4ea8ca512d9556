package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridl/2018-ComputeFest/internal/mnist"
)

func showCmd(dataDir *string) *cobra.Command {
	var split string
	var count int

	var cmd = &cobra.Command{
		Use:   "show <index>",
		Short: "Render dataset digits as ASCII art",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var index int
			if _, err := fmt.Sscanf(args[0], "%d", &index); err != nil {
				return fmt.Errorf("bad index %q", args[0])
			}

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
			if index < 0 || index+count > len(samples) {
				return fmt.Errorf("index %v out of range, %v split has %v samples",
					index, split, len(samples))
			}

			var out = cmd.OutOrStdout()
			for i := index; i < index+count; i++ {
				var sample = samples[i]
				fmt.Fprintf(out, "%v[%v] label %v\n", split, i, sample.Label)
				fmt.Fprint(out, mnist.Render(sample.Pixels))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&split, "split", "train", "Dataset split: train or test")
	cmd.Flags().IntVar(&count, "count", 1, "Digits to render starting at the index")
	return cmd
}
