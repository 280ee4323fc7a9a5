package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strataml/labelclean/lake"
)

var branchesCmd = &cobra.Command{
	Use:   "branches <dataset-dir>",
	Short: "List the dataset's branches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lake.Open(args[0], lake.WithReadOnly())
		if err != nil {
			return err
		}
		defer store.Close()

		branches, err := store.Branches()
		if err != nil {
			return err
		}
		current := store.CurrentBranch()
		for _, name := range branches {
			marker := "  "
			if name == current {
				marker = "* "
			}
			fmt.Println(marker + name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(branchesCmd)
}
