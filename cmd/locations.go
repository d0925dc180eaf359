package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/estimate"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
	"github.com/Kaiman22/autonomy-explorer/pkg/geocode"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Manage custom reference locations",
	Long: `Commands for adding, listing, and removing custom reference locations.

A custom location joins the built-in cities as a scoring target. Travel
times from every area are estimated from road distance when added, so a
new location is scoreable immediately.`,
}

// -- locations list --

var locationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reference locations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStoreOnly(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		custom, err := st.ListReferences(ctx)
		if err != nil {
			return eris.Wrap(err, "locations list")
		}

		refs := append(cfg.BuiltinReferences(), custom...)
		formatReferenceList(os.Stdout, refs)
		return nil
	},
}

// -- locations add --

var locationsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a custom reference location",
	Long: `Add a custom reference location by name. Coordinates are resolved via
geocoding unless --lat/--lng are given. Travel times from every area are
estimated and stored alongside the location.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")

		if lat == 0 && lng == 0 {
			query, _ := cmd.Flags().GetString("query")
			if query == "" {
				query = name
			}

			gc := geocode.NewClient(
				geocode.WithBaseURL(cfg.Geocode.BaseURL),
				geocode.WithUserAgent(cfg.Geocode.UserAgent),
			)
			res, err := gc.Search(ctx, query)
			if err != nil {
				return eris.Wrapf(err, "locations add: geocode %q", query)
			}
			if !res.Matched {
				return eris.Errorf("locations add: no geocoding match for %q", query)
			}
			lat, lng = res.Lat, res.Lng
			fmt.Printf("Resolved %q to %s (%.5f, %.5f)\n", query, res.DisplayName, lat, lng)
		}

		ref := model.Reference{
			Name:    name,
			Enabled: true,
			Custom:  true,
			Lat:     lat,
			Lng:     lng,
		}
		if maxMin, _ := cmd.Flags().GetFloat64("max-minutes"); maxMin > 0 {
			ref.MaxMinutes = &maxMin
		}

		created, err := e.store.CreateReference(ctx, ref)
		if err != nil {
			return eris.Wrap(err, "locations add")
		}

		drive, pt := estimate.ForReference(*created, e.dataset.Areas, cfg.BuiltinReferences())
		if err := e.store.SetReferenceTimes(ctx, created.ID, drive, pt); err != nil {
			return eris.Wrap(err, "locations add: store times")
		}

		zap.L().Info("location added",
			zap.String("id", created.ID),
			zap.String("name", created.Name),
			zap.Int("areas", len(drive)))
		fmt.Printf("Added %s (%s) with estimated times for %d areas\n", created.Name, created.ID, len(drive))
		return nil
	},
}

// -- locations remove --

var locationsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a custom reference location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStoreOnly(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteReference(ctx, args[0]); err != nil {
			return eris.Wrap(err, "locations remove")
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// -- locations enable / disable --

var locationsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a custom reference location",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setLocationEnabled(cmd, args[0], true) },
}

var locationsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a custom reference location",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setLocationEnabled(cmd, args[0], false) },
}

func setLocationEnabled(cmd *cobra.Command, id string, enabled bool) error {
	ctx := cmd.Context()

	st, err := openStoreOnly(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.SetReferenceEnabled(ctx, id, enabled); err != nil {
		return eris.Wrap(err, "locations")
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("%s %s\n", id, state)
	return nil
}

func init() {
	locationsAddCmd.Flags().String("query", "", "geocoding query (default: the location name)")
	locationsAddCmd.Flags().Float64("lat", 0, "latitude (skips geocoding)")
	locationsAddCmd.Flags().Float64("lng", 0, "longitude (skips geocoding)")
	locationsAddCmd.Flags().Float64("max-minutes", 0, "exclude areas farther than this many minutes")

	locationsCmd.AddCommand(locationsListCmd)
	locationsCmd.AddCommand(locationsAddCmd)
	locationsCmd.AddCommand(locationsRemoveCmd)
	locationsCmd.AddCommand(locationsEnableCmd)
	locationsCmd.AddCommand(locationsDisableCmd)
	rootCmd.AddCommand(locationsCmd)
}

// formatReferenceList writes a tabular list of references to w.
func formatReferenceList(out io.Writer, refs []model.Reference) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tENABLED\tLAT\tLNG\tMAX_MIN")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t-------\t---\t---\t-------")

	for _, r := range refs {
		kind := "builtin"
		if r.Custom {
			kind = "custom"
		}
		maxMin := "-"
		if r.MaxMinutes != nil {
			maxMin = strconv.FormatFloat(*r.MaxMinutes, 'f', -1, 64)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%.4f\t%.4f\t%s\n",
			r.ID, r.Name, kind, r.Enabled, r.Lat, r.Lng, maxMin)
	}
	_ = w.Flush()
}
