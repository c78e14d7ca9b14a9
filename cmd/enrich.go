package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run one enrichment sweep over records with missing fields",
	Long:  "Scans the catalog for records missing a main image, gallery, or coordinates, resolves each against Wikidata with Commons, Wikipedia, and geocoder fallbacks, writes results back record by record, and emits a gap report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		orch, err := buildOrchestrator(st)
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "enrich"))
		log.Info("starting enrichment sweep")

		sweep, err := orch.Sweep(ctx)
		if err != nil {
			return eris.Wrap(err, "enrichment sweep")
		}

		fmt.Printf("Sweep complete: %d targets (missing main: %d, gallery: %d, coordinates: %d)\n",
			sweep.Targets, sweep.MissingMain, sweep.MissingGallery, sweep.MissingCoords)
		if sweep.ReportPath != "" {
			fmt.Printf("Gap report: %s\n", sweep.ReportPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
