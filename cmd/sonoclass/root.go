package main

import (
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	imageSize int
)

// rootCmd is the entry point for the sonoclass CLI.
var rootCmd = &cobra.Command{
	Use:   "sonoclass",
	Short: "Cross-validated fine-tuning of an ultrasound tumor classifier",
	Long: `sonoclass trains and evaluates a convolutional classifier that labels
breast ultrasound images as benign or malignant. The pipeline downloads the
dataset, computes normalization statistics, runs k-fold cross-validation and
trains the final model on the full dataset.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "data", "dataset root directory (benign/ and malignant/ subdirectories)")
	rootCmd.PersistentFlags().IntVar(&imageSize, "size", 128, "square image size fed to the network")
}
