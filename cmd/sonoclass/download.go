package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonomed/sonoclass/vision/dataset"
)

var downloadURL string

// downloadCmd fetches the dataset archive and removes segmentation masks
// and corrupt files.
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and clean the ultrasound dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downloadURL == "" {
			return fmt.Errorf("--url is required")
		}

		fmt.Printf("Downloading %s into %s\n", downloadURL, dataDir)
		if err := dataset.Download(downloadURL, dataDir); err != nil {
			return err
		}

		removed, err := dataset.Clean(dataDir)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d mask/corrupt files\n", removed)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadURL, "url", "", "dataset archive URL")
	rootCmd.AddCommand(downloadCmd)
}
