package main

import (
	"fmt"
	"log"
	"math/rand"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridl/2018-ComputeFest/internal/config"
	"github.com/gridl/2018-ComputeFest/internal/infer"
	"github.com/gridl/2018-ComputeFest/internal/ml"
	"github.com/gridl/2018-ComputeFest/internal/mnist"
	"github.com/gridl/2018-ComputeFest/internal/runs"
	"github.com/gridl/2018-ComputeFest/internal/train"
)

func trainCmd(dataDir *string) *cobra.Command {
	var configPath string
	var o = config.NewOverrides()

	var cmd = &cobra.Command{
		Use:   "train",
		Short: "Train the classifier",
		Long: "Train the two-layer network on the training split, checkpointing\n" +
			"after every epoch, then report accuracy on the test split. Flags\n" +
			"override the config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg = config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("data-dir") {
				o.DataDir = *dataDir
			}
			cfg.ApplyOverrides(o)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runTrain(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&o.NetDir, "net-dir", "", "Directory for checkpoints")
	cmd.Flags().IntVar(&o.Epochs, "epochs", 0, "Number of epochs")
	cmd.Flags().IntVar(&o.BatchSize, "batch-size", 0, "Mini-batch size")
	cmd.Flags().IntVar(&o.HiddenSize, "hidden-size", 0, "Hidden layer width")
	cmd.Flags().Float64Var(&o.LearningRate, "learning-rate", 0, "Optimizer learning rate")
	cmd.Flags().StringVar(&o.Optimizer, "optimizer", "", "Optimizer: sgd, rmsprop or adam")
	cmd.Flags().StringVar(&o.Loss, "loss", "", "Loss: cross_entropy or mse")
	cmd.Flags().Float64Var(&o.ValFraction, "val-fraction", -1, "Fraction of training data held out for validation")
	cmd.Flags().IntVar(&o.Threads, "threads", 0, "Worker goroutines (0 = all CPUs)")
	cmd.Flags().Int64Var(&o.Seed, "seed", 0, "Shuffle and init seed (0 keeps config)")
	cmd.Flags().IntVar(&o.LogEvery, "log-every", -1, "Batches between progress lines (0 disables)")
	return cmd
}

func runTrain(cmd *cobra.Command, cfg *config.Config) error {
	log.Printf("config %+v", *cfg)

	ds, err := mnist.Load(cfg.DataDir)
	if err != nil {
		return err
	}
	log.Printf("loaded %v training and %v test samples", len(ds.Train), len(ds.Test))

	var training, validation = mnist.Split(ds.Train, cfg.ValFraction, cfg.Seed)
	log.Printf("split: %v training, %v validation", len(training), len(validation))

	var rnd = rand.New(rand.NewSource(cfg.Seed))
	model, err := train.NewModel(rnd, cfg.HiddenSize, cfg.Loss)
	if err != nil {
		return err
	}
	optimizer, err := ml.OptimizerByName(cfg.Optimizer, cfg.LearningRate)
	if err != nil {
		return err
	}

	var record = runs.NewRecord(*cfg)
	result, err := train.Train(training, validation, model, train.Options{
		Epochs:      cfg.Epochs,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Threads,
		Optimizer:   optimizer,
		Seed:        cfg.Seed,
		NetDir:      cfg.NetDir,
		LogEvery:    cfg.LogEvery,
	})
	if err != nil {
		return err
	}

	confusion, err := infer.EvaluateBatch(model.Network(), ds.Test, cfg.BatchSize)
	if err != nil {
		return err
	}

	record.FinishedAt = time.Now().UTC()
	record.Result = *result
	record.TestAccuracy = confusion.Accuracy()
	if err := runs.NewRegistry(cfg.DataDir).Append(record); err != nil {
		return err
	}

	var out = cmd.OutOrStdout()
	var tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EPOCH\tLOSS\tACC\tVAL LOSS\tVAL ACC\tTIME")
	for _, e := range result.Epochs {
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.4f\t%.4f\t%v\n",
			e.Epoch, e.TrainLoss, e.TrainAcc, e.ValLoss, e.ValAcc, e.Elapsed)
	}
	tw.Flush()
	if result.BestEpoch > 0 {
		fmt.Fprintf(out, "best epoch %v (validation cost %.4f)\n", result.BestEpoch, result.BestValCost)
	}
	if result.NetPath != "" {
		fmt.Fprintf(out, "network saved to %v\n", result.NetPath)
	}
	fmt.Fprintf(out, "test accuracy: %.4f\n", confusion.Accuracy())
	fmt.Fprintf(out, "run %v recorded\n", record.ID)
	return nil
}
