package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/lake"
)

var initFlags struct {
	csvPath string
	name    string
}

var initCmd = &cobra.Command{
	Use:   "init <dataset-dir>",
	Short: "Create a dataset from a CSV file (feature columns, label last)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		features, labels, err := readCSV(initFlags.csvPath)
		if err != nil {
			return err
		}

		name := initFlags.name
		if name == "" {
			name = filepath.Base(args[0])
		}

		store, err := lake.Create(args[0], name, features, labels)
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("created dataset %q with %d samples\n", name, store.Len())
		return nil
	},
}

// readCSV parses a headerless CSV whose last column is the integer label.
func readCSV(path string) (mat.Matrix, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, nil, fmt.Errorf("csv must have at least one feature column and a label column")
	}

	cols := len(records[0]) - 1
	features := mat.NewDense(len(records), cols, nil)
	labels := make([]int, len(records))

	for i, record := range records {
		if len(record) != cols+1 {
			return nil, nil, fmt.Errorf("row %d has %d fields, expected %d", i+1, len(record), cols+1)
		}
		for j := 0; j < cols; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d field %d: %w", i+1, j+1, err)
			}
			features.Set(i, j, v)
		}
		label, err := strconv.Atoi(record[cols])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d label: %w", i+1, err)
		}
		labels[i] = label
	}
	return features, labels, nil
}

func init() {
	initCmd.Flags().StringVar(&initFlags.csvPath, "from", "", "CSV file to import (required)")
	initCmd.Flags().StringVar(&initFlags.name, "name", "", "dataset display name")
	_ = initCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(initCmd)
}
