package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Kaiman22/autonomy-explorer/internal/estimate"
	"github.com/Kaiman22/autonomy-explorer/internal/ingest"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
	"github.com/Kaiman22/autonomy-explorer/pkg/estv"
	"github.com/Kaiman22/autonomy-explorer/pkg/osrm"
	"github.com/Kaiman22/autonomy-explorer/pkg/traveltime"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch external data into the processed data directory",
	Long: `Commands for refreshing the processed data files from external sources:
travel times from the TravelTime API or a local OSRM instance, and tax
multipliers from the ESTV export or API.`,
}

// -- fetch times --

var fetchTimesCmd = &cobra.Command{
	Use:   "times",
	Short: "Fetch travel times to every reference city",
	Long: `Fetch per-municipality travel times to every enabled reference city and
write them to travel_times.json.

With TravelTime API credentials configured, both driving and public
transport times come from the API. Without credentials, driving times
come from OSRM and public transport times are estimated from the road
distance.`,
	RunE: runFetchTimes,
}

// -- fetch taxes --

var fetchTaxesCmd = &cobra.Command{
	Use:   "taxes",
	Short: "Fetch municipal tax multipliers",
	Long: `Fetch per-municipality income tax multipliers and write them to
taxes.json, keyed by BFS number. Reads a downloaded ESTV workbook when
--xlsx is given, otherwise calls the ESTV API.`,
	RunE: runFetchTaxes,
}

func init() {
	fetchTaxesCmd.Flags().String("xlsx", "", "path to a downloaded ESTV multiplier workbook")

	fetchCmd.AddCommand(fetchTimesCmd)
	fetchCmd.AddCommand(fetchTaxesCmd)
	rootCmd.AddCommand(fetchCmd)
}

func runFetchTimes(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "fetch times"))

	e, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	refs := enabledReferences(cfg.BuiltinReferences())
	if len(refs) == 0 {
		return eris.New("fetch times: no enabled reference cities")
	}

	var driving, pt map[string]map[string]float64
	if cfg.TravelTime.AppID != "" && cfg.TravelTime.APIKey != "" {
		driving, pt, err = fetchTravelTimeAPI(ctx, e.dataset.Areas, refs)
	} else {
		log.Info("no TravelTime credentials, using OSRM with estimated public transport")
		driving, pt, err = fetchOSRMTimes(ctx, e.dataset.Areas, refs)
	}
	if err != nil {
		return err
	}

	out := struct {
		Driving         map[string]map[string]float64 `json:"driving"`
		PublicTransport map[string]map[string]float64 `json:"public_transport"`
	}{Driving: driving, PublicTransport: pt}

	path := filepath.Join(cfg.Data.Dir, ingest.FileTravelTimes)
	if err := writeJSONFile(path, out); err != nil {
		return err
	}

	log.Info("travel times written",
		zap.String("path", path),
		zap.Int("areas", len(driving)),
		zap.Int("references", len(refs)))
	fmt.Printf("Wrote travel times for %d areas to %s\n", len(driving), path)
	return nil
}

// fetchTravelTimeAPI fetches driving and public transport times from the
// TravelTime API, both modes in parallel.
func fetchTravelTimeAPI(ctx context.Context, areas []model.Area, refs []model.Reference) (driving, pt map[string]map[string]float64, err error) {
	c := traveltime.NewClient(cfg.TravelTime.AppID, cfg.TravelTime.APIKey,
		traveltime.WithBaseURL(cfg.TravelTime.BaseURL),
		traveltime.WithArrivalTime(cfg.TravelTime.ArrivalTime),
	)

	origins := make([]traveltime.Location, len(areas))
	for i, a := range areas {
		origins[i] = traveltime.Location{ID: a.ID, Lat: a.Location.Lat, Lng: a.Location.Lng}
	}
	arrivals := make([]traveltime.Location, len(refs))
	for i, r := range refs {
		arrivals[i] = traveltime.Location{ID: r.ID, Lat: r.Lat, Lng: r.Lng}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		driving, err = c.TimeFilter(gctx, origins, arrivals, traveltime.ModeDriving)
		return err
	})
	g.Go(func() error {
		var err error
		pt, err = c.TimeFilter(gctx, origins, arrivals, traveltime.ModePublicTransport)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "fetch times")
	}
	return driving, pt, nil
}

// fetchOSRMTimes fetches driving times from OSRM and derives public
// transport times from the road distance.
func fetchOSRMTimes(ctx context.Context, areas []model.Area, refs []model.Reference) (driving, pt map[string]map[string]float64, err error) {
	c := osrm.NewClient(
		osrm.WithBaseURL(cfg.OSRM.BaseURL),
		osrm.WithBatchSize(cfg.OSRM.BatchSize),
		osrm.WithRateLimit(cfg.OSRM.RPS),
	)

	sources := make([]osrm.Location, len(areas))
	for i, a := range areas {
		sources[i] = osrm.Location{ID: a.ID, Lat: a.Location.Lat, Lng: a.Location.Lng}
	}
	destinations := make([]osrm.Location, len(refs))
	for i, r := range refs {
		destinations[i] = osrm.Location{ID: r.ID, Lat: r.Lat, Lng: r.Lng}
	}

	driving, err = c.Table(ctx, sources, destinations)
	if err != nil {
		return nil, nil, eris.Wrap(err, "fetch times: osrm")
	}

	cities := make([]model.LatLng, len(refs))
	for i, r := range refs {
		cities[i] = model.LatLng{Lat: r.Lat, Lng: r.Lng}
	}

	pt = make(map[string]map[string]float64, len(driving))
	for _, a := range areas {
		times := driving[a.ID]
		if len(times) == 0 {
			continue
		}
		ptTimes := make(map[string]float64, len(times))
		for _, r := range refs {
			sec, ok := times[r.ID]
			if !ok {
				continue
			}
			refLoc := model.LatLng{Lat: r.Lat, Lng: r.Lng}
			ptTimes[r.ID] = estimate.PTFromDrive(sec, a.Location, refLoc, cities)
		}
		pt[a.ID] = ptTimes
	}
	return driving, pt, nil
}

func runFetchTaxes(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "fetch taxes"))

	var taxes map[string]ingest.TaxRecord
	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		var err error
		taxes, err = ingest.ParseTaxXLSX(path)
		if err != nil {
			return err
		}
	} else {
		c := estv.NewClient(estv.WithBaseURL(cfg.ESTV.BaseURL))
		rates, err := c.IncomeRates(ctx, cfg.ESTV.TaxYear)
		if err != nil {
			return eris.Wrap(err, "fetch taxes")
		}
		taxes = make(map[string]ingest.TaxRecord, len(rates))
		for bfs, r := range rates {
			taxes[bfs] = ingest.TaxRecord{
				Name:        r.Name,
				Canton:      r.Canton,
				Multiplier:  r.Multiplier,
				CantonRate:  r.CantonRate,
				CommuneRate: r.CommuneRate,
			}
		}
	}

	path := filepath.Join(cfg.Data.Dir, ingest.FileTaxes)
	if err := writeJSONFile(path, taxes); err != nil {
		return err
	}

	log.Info("tax multipliers written", zap.String("path", path), zap.Int("municipalities", len(taxes)))
	fmt.Printf("Wrote tax multipliers for %d municipalities to %s\n", len(taxes), path)
	return nil
}

// enabledReferences filters disabled cities out.
func enabledReferences(refs []model.Reference) []model.Reference {
	out := make([]model.Reference, 0, len(refs))
	for _, r := range refs {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "fetch: create %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "fetch: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrapf(err, "fetch: write %s", path)
	}
	return nil
}
