package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/config"
	"github.com/Kaiman22/autonomy-explorer/internal/engine"
	"github.com/Kaiman22/autonomy-explorer/internal/export"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute autonomy upside scores for all areas",
	Long: `Score every area against the enabled reference cities and any custom
locations, then write the result as GeoJSON, CSV, or a terminal table.

Examples:
  # Score with configured defaults and write the frontend GeoJSON
  score --format geojson --output municipalities_scored.geojson

  # Weight accessibility gain only
  score --weight-access 1 --weight-attract 0

  # Apply a named preset from profiles.yaml
  score --profile commuter

  # Show the 30 most attractive areas by price
  score --format table --metric chf_per_m2 --top 30`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("profile", "", "named scoring preset to apply")
	f.String("profiles", "profiles.yaml", "path to the scoring preset file")
	f.Float64("pt-factor", 0, "public transport comfort factor (overrides config)")
	f.Float64("av-factor", 0, "autonomous driving comfort factor (overrides config)")
	f.Float64("weight-access", -1, "accessibility gain weight (overrides config)")
	f.Float64("weight-attract", -1, "inherent attractiveness weight (overrides config)")
	f.String("format", "table", "output format: table, csv or geojson")
	f.String("output", "", "output file path (default: stdout)")
	f.String("metric", string(engine.MetricComposite), "metric to sort the table by")
	f.Int("top", 20, "number of table rows (0=all)")
	f.Bool("snapshot", false, "record the run in the snapshot history")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "score"))

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" && format != "geojson" {
		return eris.Errorf("score: --format must be table, csv or geojson (got %q)", format)
	}

	metricFlag, _ := cmd.Flags().GetString("metric")
	metric, err := engine.ParseMetric(metricFlag)
	if err != nil {
		return err
	}

	e, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	params := cfg.Scoring.Params()
	refs := cfg.BuiltinReferences()

	if name, _ := cmd.Flags().GetString("profile"); name != "" {
		path, _ := cmd.Flags().GetString("profiles")
		profiles, err := config.LoadProfiles(path)
		if err != nil {
			return err
		}
		profile, ok := profiles.Profiles[name]
		if !ok {
			return eris.Errorf("score: profile %q not found in %s", name, path)
		}
		params, refs = profile.Apply(params, refs)
	}
	params = applyScoringOverrides(cmd, params)

	in, err := e.scoringInput(ctx, params, refs)
	if err != nil {
		return err
	}

	scored := engine.Compute(in)
	summary := engine.Summarize(scored)
	log.Info("scoring complete",
		zap.Int("areas", summary.Areas),
		zap.Int("scored", summary.Scored),
		zap.Int("excluded", summary.Excluded))

	if save, _ := cmd.Flags().GetBool("snapshot"); save {
		resolved := engine.Resolve(in.Builtin, in.Custom)
		ids := make([]string, len(resolved))
		for i, r := range resolved {
			ids[i] = r.ID
		}
		snap, err := e.store.CreateSnapshot(ctx, model.Snapshot{Params: params, RefIDs: ids, Summary: summary})
		if err != nil {
			return eris.Wrap(err, "score: save snapshot")
		}
		fmt.Printf("Snapshot saved: %s\n", snap.ID)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	w := os.Stdout
	if outputPath != "" {
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	switch format {
	case "geojson":
		allRefs := append(append([]model.Reference{}, in.Builtin...), in.Custom...)
		if err := export.WriteGeoJSON(w, scored, allRefs, params); err != nil {
			return err
		}
	case "csv":
		if err := export.WriteCSV(w, scored); err != nil {
			return err
		}
	case "table":
		top, _ := cmd.Flags().GetInt("top")
		writeScoreTable(w, scored, metric, top)
		if outputPath == "" {
			printScoreSummary(summary)
		}
	}

	if outputPath != "" {
		fmt.Printf("Wrote %d areas to %s\n", len(scored), outputPath)
	}
	return nil
}

// applyScoringOverrides returns a copy of the parameters with CLI flag
// overrides applied.
func applyScoringOverrides(cmd *cobra.Command, p model.Params) model.Params {
	if v, _ := cmd.Flags().GetFloat64("pt-factor"); v > 0 {
		p.PTFactor = v
	}
	if v, _ := cmd.Flags().GetFloat64("av-factor"); v > 0 {
		p.AVFactor = v
	}
	if v, _ := cmd.Flags().GetFloat64("weight-access"); v >= 0 {
		p.Weights.AccessibilityGain = v
	}
	if v, _ := cmd.Flags().GetFloat64("weight-attract"); v >= 0 {
		p.Weights.InherentAttractiveness = v
	}
	return p
}

func writeScoreTable(w io.Writer, scored []model.ScoredArea, metric engine.Metric, top int) {
	ranked := make([]model.ScoredArea, len(scored))
	copy(ranked, scored)
	engine.SortByMetric(ranked, metric)
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}

	fmt.Fprintf(w, "%-10s %-30s %-6s %9s %9s %9s %7s\n",
		"PLZ", "Name", "Kt", "Score", "Access", "Attract", "CHF/m2")
	fmt.Fprintln(w, strings.Repeat("-", 85))

	for _, sa := range ranked {
		name := sa.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(w, "%-10s %-30s %-6s %9s %9s %9s %7s\n",
			sa.PLZ, name, sa.CantonCode,
			formatScore(sa.Composite),
			formatScore(sa.ScoreAccessibility),
			formatScore(sa.ScoreAttractiveness),
			formatScore(sa.PricePerM2))
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func printScoreSummary(s model.SnapshotSummary) {
	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Areas:    %d\n", s.Areas)
	fmt.Printf("Scored:   %d\n", s.Scored)
	fmt.Printf("Excluded: %d\n", s.Excluded)
	if s.MinScore != nil && s.MaxScore != nil {
		fmt.Printf("Range:    %.1f - %.1f\n", *s.MinScore, *s.MaxScore)
	}
	if s.MedianScore != nil {
		fmt.Printf("Median:   %.1f\n", *s.MedianScore)
	}
}
