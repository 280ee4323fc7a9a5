package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strataml/labelclean/clean"
	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/lake"
	"github.com/strataml/labelclean/linear"
	"github.com/strataml/labelclean/preprocessing"
)

var cleanFlags struct {
	folds         int
	shuffle       bool
	seed          uint64
	createTensors bool
	overwrite     bool
	branch        string
	quiet         bool
	concurrency   int
	maxIter       int
	c             float64
	standardize   bool
}

var cleanCmd = &cobra.Command{
	Use:   "clean <dataset-dir>",
	Short: "Detect label issues in a dataset and retrain on the clean subset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []lake.OpenOption
		if !cleanFlags.createTensors {
			opts = append(opts, lake.WithReadOnly())
		}
		store, err := lake.Open(args[0], opts...)
		if err != nil {
			return err
		}
		defer store.Close()

		var factory model.Factory = linear.NewFactory(
			linear.WithMaxIter(cleanFlags.maxIter),
			linear.WithC(cleanFlags.c),
		)
		if cleanFlags.standardize {
			factory = preprocessing.ScaledFactory(factory)
		}

		runOpts := []clean.Option{
			clean.WithFolds(cleanFlags.folds),
			clean.WithConcurrency(cleanFlags.concurrency),
			clean.WithVerbose(!cleanFlags.quiet),
		}
		if cleanFlags.shuffle {
			runOpts = append(runOpts, clean.WithShuffle(cleanFlags.seed))
		}
		if cleanFlags.createTensors {
			runOpts = append(runOpts, clean.WithCreateTensors())
		}
		if cleanFlags.overwrite {
			runOpts = append(runOpts, clean.WithOverwrite())
		}
		if cleanFlags.branch != "" {
			runOpts = append(runOpts, clean.WithBranch(cleanFlags.branch))
		}

		rep, err := clean.DetectAndClean(store, factory, runOpts...)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d of %d samples flagged as label issues\n",
			store.Name(), rep.NumIssues(), store.Len())
		for i, bad := range rep.IssueMask {
			if bad {
				fmt.Printf("  sample %d: label=%d predicted=%d quality=%.3f\n",
					i, store.Labels()[i], rep.PredictedLabels[i], rep.QualityScores[i])
			}
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().IntVar(&cleanFlags.folds, "folds", clean.DefaultFolds, "cross-validation fold count")
	cleanCmd.Flags().BoolVar(&cleanFlags.shuffle, "shuffle", false, "shuffle samples within each class before splitting")
	cleanCmd.Flags().Uint64Var(&cleanFlags.seed, "seed", 0, "shuffle seed")
	cleanCmd.Flags().BoolVar(&cleanFlags.createTensors, "create-tensors", false, "persist results into the dataset")
	cleanCmd.Flags().BoolVar(&cleanFlags.overwrite, "overwrite", false, "replace existing result tensors")
	cleanCmd.Flags().StringVar(&cleanFlags.branch, "branch", "", "write results on this branch")
	cleanCmd.Flags().BoolVarP(&cleanFlags.quiet, "quiet", "q", false, "suppress progress output")
	cleanCmd.Flags().IntVar(&cleanFlags.concurrency, "concurrency", 1, "folds trained in parallel")
	cleanCmd.Flags().IntVar(&cleanFlags.maxIter, "max-iter", 200, "classifier gradient-descent iterations")
	cleanCmd.Flags().Float64Var(&cleanFlags.c, "C", 1.0, "inverse regularization strength")
	cleanCmd.Flags().BoolVar(&cleanFlags.standardize, "standardize", false, "scale features to zero mean and unit variance before training")
	rootCmd.AddCommand(cleanCmd)
}
