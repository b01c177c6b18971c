package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonomed/sonoclass/vision/dataset"
	"github.com/sonomed/sonoclass/vision/transform"
)

// statsCmd prints the per-channel normalization statistics of the dataset.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute per-channel mean and std of the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		resize, err := transform.NewResize(imageSize, imageSize)
		if err != nil {
			return err
		}

		ds, err := dataset.NewUltrasoundDataset(dataDir, resize, resize)
		if err != nil {
			return err
		}
		fmt.Println(ds)

		stats, err := dataset.ComputeStats(ds)
		if err != nil {
			return err
		}
		for c := range stats.Mean {
			fmt.Printf("Channel %d: mean=%.4f std=%.4f\n", c, stats.Mean[c], stats.Std[c])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
