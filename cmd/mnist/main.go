package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
)

const name = "mnist"

var (
	versionName = "dev"
	buildDate   = "(null)"
	gitRevision = "(null)"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Println(name,
		"VersionName", versionName,
		"BuildDate", buildDate,
		"GitRevision", gitRevision,
		"RuntimeVersion", runtime.Version(),
		"NumCPU", runtime.NumCPU(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	var cmd = &cobra.Command{
		Use:   name,
		Short: "Train and run a dense network on the MNIST digits",
		Long: "Fetch the MNIST handwritten digit corpus, train a two-layer dense\n" +
			"network on it, and run the trained network on datasets or images.",
		Version:      versionName,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory holding the dataset archives")

	cmd.AddCommand(fetchCmd(&dataDir))
	cmd.AddCommand(trainCmd(&dataDir))
	cmd.AddCommand(evalCmd(&dataDir))
	cmd.AddCommand(predictCmd())
	cmd.AddCommand(showCmd(&dataDir))
	cmd.AddCommand(inspectCmd())
	cmd.AddCommand(runsCmd(&dataDir))
	return cmd
}
