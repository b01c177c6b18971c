package main

import (
	"github.com/spf13/cobra"
)

var weightsOut string

// trainCmd trains once on the complete dataset and persists the weights.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train on the full dataset and save the final weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		config := buildConfig()
		if err := config.Validate(); err != nil {
			return err
		}

		ds, err := buildDataset(config)
		if err != nil {
			return err
		}
		cv, err := buildValidator(config, ds)
		if err != nil {
			return err
		}

		return cv.TrainFinal(ds, weightsOut)
	},
}

func init() {
	addTrainingFlags(trainCmd.Flags())
	trainCmd.Flags().StringVar(&weightsOut, "out", "sononet.json", "path for the final weights checkpoint")
	rootCmd.AddCommand(trainCmd)
}
