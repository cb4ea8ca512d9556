package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridl/2018-ComputeFest/internal/infer"
	"github.com/gridl/2018-ComputeFest/internal/mnist"
)

func predictCmd() *cobra.Command {
	var netPath string
	var invert bool
	var art bool

	var cmd = &cobra.Command{
		Use:   "predict --net <file> <image>...",
		Short: "Classify digit images",
		Long: "Classify PNG or JPEG images with a trained network. Images are\n" +
			"resampled to the 28x28 input grid. The corpus stores digits as\n" +
			"light ink on dark background; pass --invert for dark-on-light\n" +
			"pictures.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := infer.LoadClassifier(netPath)
			if err != nil {
				return err
			}
			log.Println("loaded network", "path", netPath, "hidden", classifier.HiddenSize())
			var out = cmd.OutOrStdout()
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				pixels, err := mnist.DecodePixels(f, invert)
				f.Close()
				if err != nil {
					return fmt.Errorf("%v: %w", path, err)
				}

				digit, probs := classifier.Predict(pixels)
				if art {
					fmt.Fprint(out, mnist.Render(pixels))
				}
				fmt.Fprintf(out, "%v: %v\n", path, digit)
				for class, p := range probs {
					fmt.Fprintf(out, "  %d %6.2f%% %v\n", class, 100*p, bar(p))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&netPath, "net", "", "Trained network file")
	cmd.Flags().BoolVar(&invert, "invert", false, "Invert intensities (dark ink on light background)")
	cmd.Flags().BoolVar(&art, "art", false, "Render the resampled input")
	cmd.MarkFlagRequired("net")
	return cmd
}

func bar(p float32) string {
	return strings.Repeat("#", int(p*40))
}
