package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heritage-atlas/heritage-cli/internal/importer"
)

var (
	importCSVPath string
	importForce   bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the UNESCO heritage CSV into the local catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		im := importer.New(st)

		var inserted int
		if importForce {
			inserted, err = im.Reimport(ctx, importCSVPath)
		} else {
			inserted, err = im.ImportIfEmpty(ctx, importCSVPath)
		}
		if err != nil {
			return eris.Wrap(err, "import csv")
		}

		zap.L().Info("import complete",
			zap.Int("inserted", inserted),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to the UNESCO CSV file (required)")
	importCmd.Flags().BoolVar(&importForce, "reimport", false, "wipe existing records and import from scratch")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
