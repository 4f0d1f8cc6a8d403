package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/network-planner/internal/dataset"
	"github.com/sells-group/network-planner/internal/render"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Print the candidate region dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed, _ := cmd.Flags().GetInt64("seed")
		location, _ := cmd.Flags().GetString("dataset")
		format, _ := cmd.Flags().GetString("format")
		if !cmd.Flags().Changed("seed") {
			seed = cfg.Planner.Seed
		}
		if location == "" {
			location = cfg.Dataset.Location
		}

		src := dataset.NewSource(location, cfg.Dataset.SheetName, cfg.Geocode.Nominatim.UserAgent, seed)
		regions, err := src.Regions(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch format {
		case "table":
			return render.RegionTable(w, regions)
		case "csv":
			return render.RegionCSV(w, regions)
		case "json":
			return render.JSON(w, regions)
		default:
			return eris.Errorf("regions: unknown format %q (want table, csv or json)", format)
		}
	},
}

func init() {
	regionsCmd.Flags().Int64("seed", 42, "dataset generator seed (default from config)")
	regionsCmd.Flags().String("dataset", "", "CSV, JSON or XLSX region dataset path or URL")
	regionsCmd.Flags().String("format", "table", "output format: table, csv or json")
	rootCmd.AddCommand(regionsCmd)
}
