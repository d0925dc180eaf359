package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/geo"
	"github.com/Kaiman22/autonomy-explorer/internal/ingest"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect and build the processed dataset",
}

// -- dataset stats --

var datasetStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dataset coverage statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := ingest.Load(cfg.Data.Dir)
		if err != nil {
			return err
		}
		formatDatasetStats(os.Stdout, ds)
		return nil
	},
}

// -- dataset import-boundaries --

var datasetImportCmd = &cobra.Command{
	Use:   "import-boundaries <shapefile>",
	Short: "Build municipalities.json from a boundary shapefile",
	Long: `Read a WGS84 municipality boundary shapefile (swissBOUNDARIES3D
export), compute each polygon's centroid, and write municipalities.json
to the data directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		munis, err := geo.LoadMunicipalities(args[0])
		if err != nil {
			return err
		}
		if len(munis) == 0 {
			return eris.Errorf("dataset import-boundaries: no municipalities in %s", args[0])
		}

		out := make([]ingest.Municipality, len(munis))
		for i, m := range munis {
			lat, lon := m.Centroid.Lat, m.Centroid.Lng
			out[i] = ingest.Municipality{
				ID:     m.ID,
				Name:   m.Name,
				Canton: m.Canton,
				Lat:    &lat,
				Lon:    &lon,
			}
		}

		path := filepath.Join(cfg.Data.Dir, ingest.FileMunicipalities)
		if err := writeJSONFile(path, out); err != nil {
			return err
		}

		zap.L().Info("municipalities written",
			zap.String("path", path), zap.Int("municipalities", len(out)))
		fmt.Printf("Wrote %d municipalities to %s\n", len(out), path)
		return nil
	},
}

func init() {
	datasetCmd.AddCommand(datasetStatsCmd)
	datasetCmd.AddCommand(datasetImportCmd)
	rootCmd.AddCommand(datasetCmd)
}

// formatDatasetStats writes per-field coverage counts to w.
func formatDatasetStats(out io.Writer, ds *ingest.Dataset) {
	var withDrive, withPT, withPrice, withTax int
	for _, a := range ds.Areas {
		if len(a.DriveTimes) > 0 {
			withDrive++
		}
		if len(a.PTTimes) > 0 {
			withPT++
		}
		if a.PricePerM2 != nil {
			withPrice++
		}
		if a.TaxMultiplier != nil {
			withTax++
		}
	}

	total := len(ds.Areas)
	pct := func(n int) string {
		if total == 0 {
			return "-"
		}
		return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Municipalities:\t%d\n", len(ds.Municipalities))
	_, _ = fmt.Fprintf(w, "Areas:\t%d\n", total)
	_, _ = fmt.Fprintf(w, "  with driving times:\t%d\t%s\n", withDrive, pct(withDrive))
	_, _ = fmt.Fprintf(w, "  with public transport times:\t%d\t%s\n", withPT, pct(withPT))
	_, _ = fmt.Fprintf(w, "  with prices:\t%d\t%s\n", withPrice, pct(withPrice))
	_, _ = fmt.Fprintf(w, "  with tax multipliers:\t%d\t%s\n", withTax, pct(withTax))
	_ = w.Flush()
}
