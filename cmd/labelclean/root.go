package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "labelclean",
	Short:        "Find and fix label errors in versioned datasets",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `labelclean estimates out-of-sample class probabilities with cross-validation,
flags samples whose labels look wrong, retrains on the clean remainder, and can
write the results back into the dataset on a branch of its own.`,
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
