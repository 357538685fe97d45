package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/trajectory/internal/api"
	"github.com/star/trajectory/internal/config"
	"github.com/star/trajectory/internal/passes"
	"github.com/star/trajectory/internal/tle"
	"github.com/star/trajectory/internal/trajectory"
	"github.com/star/trajectory/internal/transform"
	"github.com/star/trajectory/internal/units"
)

// computeFlags are shared by the one-shot position and look-angles commands.
type computeFlags struct {
	sat          string
	at           string
	fields       []string
	angleUnit    string
	distanceUnit string
}

func (cf *computeFlags) register(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	f.StringVar(&cf.sat, "sat", "", "NORAD catalog number or satellite name")
	f.StringVar(&cf.at, "time", "", "UTC instant in RFC 3339")
	f.StringVar(&cf.angleUnit, "angle-unit", "", "degrees or radians")
	f.StringVar(&cf.distanceUnit, "distance-unit", "", "meters, kilometers or miles")
	f.StringVar(&cfg.TLEFile, "tle-file", cfg.TLEFile, "local TLE file (default remote lookup)")
	f.BoolVar(&cfg.EnableTLEFetch, "enable-tle-fetch", cfg.EnableTLEFetch, "allow remote TLE lookups")
	f.StringVar(&cfg.TLELookupURL, "tle-lookup-url", cfg.TLELookupURL, "per-satellite TLE query URL")
	_ = cmd.MarkFlagRequired("sat")
	_ = cmd.MarkFlagRequired("time")
}

func (cf *computeFlags) identifier() tle.Identifier {
	s := strings.TrimSpace(cf.sat)
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return tle.ByNORAD(n)
	}
	return tle.ByName(s)
}

func (cf *computeFlags) instant() (time.Time, error) {
	if cf.at == "" {
		return time.Time{}, fmt.Errorf("%w: --time is required", trajectory.ErrInvalidInput)
	}
	t, err := time.Parse(time.RFC3339Nano, cf.at)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must be RFC 3339: %v", trajectory.ErrInvalidInput, err)
	}
	return t.UTC(), nil
}

func (cf *computeFlags) unitSettings() (units.Settings, error) {
	a, err := units.ParseAngleUnit(cf.angleUnit)
	if err != nil {
		return units.Settings{}, err
	}
	d, err := units.ParseDistanceUnit(cf.distanceUnit)
	if err != nil {
		return units.Settings{}, err
	}
	return units.Settings{Angle: a, Distance: d}, nil
}

// newComputeService wires a Service over the local TLE file when one is
// given, otherwise over remote per-satellite lookups.
func newComputeService(cmd *cobra.Command, cfg *config.Config, cfgPath string) (*trajectory.Service, error) {
	logger, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}
	if err := loadConfig(cmd, cfg, cfgPath, logger); err != nil {
		return nil, err
	}
	if logger, err = newLogger(cfg.LogLevel, os.Stderr); err != nil {
		return nil, err
	}

	store := tle.NewStore()
	var fetcher *tle.Fetcher
	if cfg.TLEFile != "" {
		if err := tle.NewWatcher(cfg.TLEFile, store, logger).Load(); err != nil {
			return nil, fmt.Errorf("load TLE file: %w", err)
		}
	}
	if cfg.EnableTLEFetch {
		fetcher = tle.NewFetcher(tle.FetcherConfig{
			SourceURL: cfg.TLESourceURL,
			LookupURL: cfg.TLELookupURL,
		}, logger)
	}
	if store.Get() == nil && fetcher == nil {
		return nil, fmt.Errorf("no TLE source: pass --tle-file or --enable-tle-fetch")
	}

	return trajectory.NewService(tle.NewResolver(store, fetcher, logger), nil, logger), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPositionCmd(cfg *config.Config, cfgPath *string) *cobra.Command {
	var cf computeFlags
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Compute a satellite position at one instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := cf.instant()
			if err != nil {
				return err
			}
			u, err := cf.unitSettings()
			if err != nil {
				return err
			}
			sel := trajectory.PositionSelectionFromMask(cf.fields)
			if err := api.CheckPositionUnits(sel, u); err != nil {
				return err
			}

			svc, err := newComputeService(cmd, cfg, *cfgPath)
			if err != nil {
				return err
			}
			pos, md, err := svc.Position(cmd.Context(), cf.identifier(), t, sel)
			if err != nil {
				return err
			}
			resp, err := api.NewPositionResponse(pos, md, u)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cf.register(cmd, cfg)
	cmd.Flags().StringSliceVar(&cf.fields, "fields",
		[]string{trajectory.FieldECI, trajectory.FieldECEF, trajectory.FieldGeodetic}, "frames to compute")
	return cmd
}

func newLookAnglesCmd(cfg *config.Config, cfgPath *string) *cobra.Command {
	var (
		cf computeFlags
		ob observerFlags
	)
	cmd := &cobra.Command{
		Use:   "look-angles",
		Short: "Compute azimuth, elevation and range from a ground observer",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := cf.instant()
			if err != nil {
				return err
			}
			u, err := cf.unitSettings()
			if err != nil {
				return err
			}
			sel := trajectory.LookAngleSelectionFromMask(cf.fields)
			if err := api.CheckLookAngleUnits(sel, u); err != nil {
				return err
			}

			observer, err := ob.geodetic()
			if err != nil {
				return err
			}

			svc, err := newComputeService(cmd, cfg, *cfgPath)
			if err != nil {
				return err
			}
			la, md, err := svc.LookAngles(cmd.Context(), cf.identifier(), t, observer, sel)
			if err != nil {
				return err
			}
			resp, err := api.NewLookAnglesResponse(la, md, u)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cf.register(cmd, cfg)
	cmd.Flags().StringSliceVar(&cf.fields, "fields",
		[]string{trajectory.FieldAzimuth, trajectory.FieldElevation, trajectory.FieldRange}, "look angles to compute")
	ob.register(cmd)
	return cmd
}

// observerFlags locate the ground observer.
type observerFlags struct {
	latDeg, lonDeg, altM float64
}

func (of *observerFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&of.latDeg, "lat-deg", 0, "observer geodetic latitude in degrees")
	f.Float64Var(&of.lonDeg, "lon-deg", 0, "observer longitude in degrees, east positive")
	f.Float64Var(&of.altM, "alt-m", 0, "observer altitude above the ellipsoid in meters")
	_ = cmd.MarkFlagRequired("lat-deg")
	_ = cmd.MarkFlagRequired("lon-deg")
}

func (of *observerFlags) geodetic() (transform.Geodetic, error) {
	lat, _ := units.Degrees.ToRadians(of.latDeg)
	lon, _ := units.Degrees.ToRadians(of.lonDeg)
	alt, _ := units.Meters.ToKilometers(of.altM)
	g := transform.Geodetic{Lat: lat, Lon: lon, Alt: alt}
	return g, api.ValidateObserver(g)
}

func newPassesCmd(cfg *config.Config, cfgPath *string) *cobra.Command {
	var (
		cf      computeFlags
		ob      observerFlags
		hours   float64
		maskDeg float64
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "passes",
		Short: "Predict passes of a satellite over a ground observer",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := cf.instant()
			if err != nil {
				return err
			}
			u, err := cf.unitSettings()
			if err != nil {
				return err
			}
			if err := api.CheckPassUnits(u); err != nil {
				return err
			}
			observer, err := ob.geodetic()
			if err != nil {
				return err
			}
			mask, _ := units.Degrees.ToRadians(maskDeg)
			req := passes.Request{
				Observer:     observer,
				Start:        start,
				Window:       time.Duration(hours * float64(time.Hour)),
				MinElevation: mask,
				Limit:        limit,
			}

			svc, err := newComputeService(cmd, cfg, *cfgPath)
			if err != nil {
				return err
			}
			ps, md, err := svc.Passes(cmd.Context(), cf.identifier(), req)
			if err != nil {
				return err
			}
			resp, err := api.NewPassesResponse(ps, md, u)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cf.register(cmd, cfg)
	ob.register(cmd)
	f := cmd.Flags()
	f.Float64Var(&hours, "hours", 24, "search window in hours from --time")
	f.Float64Var(&maskDeg, "min-elevation-deg", 0, "elevation mask in degrees")
	f.IntVar(&limit, "limit", 0, "maximum number of passes (default 10)")
	return cmd
}
