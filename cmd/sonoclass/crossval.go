package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonomed/sonoclass/experiment"
)

var experimentDB string

// crossvalCmd runs k-fold cross-validation and records the metrics.
var crossvalCmd = &cobra.Command{
	Use:   "crossval",
	Short: "Run k-fold cross-validation over the dataset",
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

		result, err := cv.Run(ds)
		if err != nil {
			return err
		}

		if experimentDB == "" {
			return nil
		}
		store, err := experiment.NewStore(experimentDB)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := store.CreateRun(config)
		if err != nil {
			return err
		}
		if err := store.RecordResult(runID, result); err != nil {
			return err
		}
		fmt.Printf("Recorded run %s in %s\n", runID, experimentDB)
		return nil
	},
}

func init() {
	addTrainingFlags(crossvalCmd.Flags())
	crossvalCmd.Flags().StringVar(&experimentDB, "db", "", "SQLite database to record run metrics in")
	rootCmd.AddCommand(crossvalCmd)
}
