package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/star/trajectory/internal/passes"
	"github.com/star/trajectory/internal/tle"
	"github.com/star/trajectory/internal/trajectory"
	"github.com/star/trajectory/internal/transform"
	"github.com/star/trajectory/internal/units"
)

// parseTime reads the required "time" parameter (RFC 3339, fractional
// seconds allowed).
func parseTime(q url.Values) (time.Time, error) {
	return parseInstant(q, "time")
}

func parseInstant(q url.Values, name string) (time.Time, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", trajectory.ErrInvalidInput, name)
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339, got %q", trajectory.ErrInvalidInput, name, v)
	}
	return t.UTC(), nil
}

// parsePassRequest reads a pass search: observer, "start", "hours" (default
// 24), min_elevation_deg|min_elevation_rad (default 0) and "limit".
func parsePassRequest(q url.Values) (passes.Request, error) {
	observer, err := parseObserver(q)
	if err != nil {
		return passes.Request{}, err
	}
	start, err := parseInstant(q, "start")
	if err != nil {
		return passes.Request{}, err
	}

	req := passes.Request{Observer: observer, Start: start, Window: 24 * time.Hour}

	if v := q.Get("hours"); v != "" {
		h, err := parseFloat("hours", v, identity)
		if err != nil {
			return passes.Request{}, err
		}
		req.Window = time.Duration(h * float64(time.Hour))
	}
	if q.Get("min_elevation_deg") != "" || q.Get("min_elevation_rad") != "" {
		req.MinElevation, err = oneOf(q, "min_elevation_deg", units.Degrees.ToRadians, "min_elevation_rad", units.Radians.ToRadians)
		if err != nil {
			return passes.Request{}, err
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return passes.Request{}, fmt.Errorf("%w: limit must be an integer, got %q", trajectory.ErrInvalidInput, v)
		}
		req.Limit = n
	}
	return req, nil
}

func identity(f float64) (float64, error) { return f, nil }

func parseIdentifier(q url.Values) (tle.Identifier, error) {
	id, err := tle.ParseIdentifier(q.Get("norad_id"), q.Get("name"))
	if err != nil {
		return tle.Identifier{}, fmt.Errorf("%w: %w", trajectory.ErrInvalidInput, err)
	}
	return id, nil
}

// parseFields collects the field mask from every "fields" parameter; each
// may hold a comma-separated list.
func parseFields(q url.Values) []string {
	var paths []string
	for _, v := range q["fields"] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

func parseUnits(q url.Values) (units.Settings, error) {
	a, err := units.ParseAngleUnit(q.Get("angle_unit"))
	if err != nil {
		return units.Settings{}, err
	}
	d, err := units.ParseDistanceUnit(q.Get("distance_unit"))
	if err != nil {
		return units.Settings{}, err
	}
	return units.Settings{Angle: a, Distance: d}, nil
}

// parseObserver reads the observer location. Each coordinate is required and
// given in exactly one unit: lat_deg|lat_rad, lon_deg|lon_rad, alt_m|alt_km.
func parseObserver(q url.Values) (transform.Geodetic, error) {
	lat, err := oneOf(q, "lat_deg", units.Degrees.ToRadians, "lat_rad", units.Radians.ToRadians)
	if err != nil {
		return transform.Geodetic{}, err
	}
	lon, err := oneOf(q, "lon_deg", units.Degrees.ToRadians, "lon_rad", units.Radians.ToRadians)
	if err != nil {
		return transform.Geodetic{}, err
	}
	alt, err := oneOf(q, "alt_m", units.Meters.ToKilometers, "alt_km", units.Kilometers.ToKilometers)
	if err != nil {
		return transform.Geodetic{}, err
	}

	g := transform.Geodetic{Lat: lat, Lon: lon, Alt: alt}
	return g, ValidateObserver(g)
}

// ValidateObserver checks that an observer location is on the globe. The
// bounds allow for rounding in degree conversion.
func ValidateObserver(g transform.Geodetic) error {
	const slack = 1e-12
	if math.Abs(g.Lat) > math.Pi/2+slack {
		return fmt.Errorf("%w: observer latitude out of range", trajectory.ErrInvalidInput)
	}
	if math.Abs(g.Lon) > math.Pi+slack {
		return fmt.Errorf("%w: observer longitude out of range", trajectory.ErrInvalidInput)
	}
	return nil
}

func oneOf(q url.Values, nameA string, convA func(float64) (float64, error), nameB string, convB func(float64) (float64, error)) (float64, error) {
	a, b := q.Get(nameA), q.Get(nameB)
	switch {
	case a != "" && b != "":
		return 0, fmt.Errorf("%w: %s and %s are mutually exclusive", trajectory.ErrInvalidInput, nameA, nameB)
	case a != "":
		return parseFloat(nameA, a, convA)
	case b != "":
		return parseFloat(nameB, b, convB)
	default:
		return 0, fmt.Errorf("%w: %s or %s is required", trajectory.ErrInvalidInput, nameA, nameB)
	}
}

func parseFloat(name, v string, conv func(float64) (float64, error)) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", trajectory.ErrInvalidInput, name, v)
	}
	return conv(f)
}
