package api

import (
	"fmt"
	"time"

	"github.com/star/trajectory/internal/passes"
	"github.com/star/trajectory/internal/trajectory"
	"github.com/star/trajectory/internal/transform"
	"github.com/star/trajectory/internal/units"
)

// Metadata is the JSON form of trajectory.Metadata plus the units used.
type Metadata struct {
	Model      string         `json:"model"`
	ComputedAt time.Time      `json:"computed_at"`
	NORADID    int            `json:"norad_id"`
	Name       string         `json:"name,omitempty"`
	TLEEpoch   time.Time      `json:"tle_epoch"`
	Units      units.Settings `json:"units"`
}

// Vector3 is a Cartesian position in the requested distance unit.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GeodeticOutput is a geodetic position in the requested units.
type GeodeticOutput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// PositionResponse is the body of GET /api/v1/position.
type PositionResponse struct {
	Metadata Metadata        `json:"metadata"`
	ECI      *Vector3        `json:"eci,omitempty"`
	ECEF     *Vector3        `json:"ecef,omitempty"`
	Geodetic *GeodeticOutput `json:"geodetic,omitempty"`
}

// LookAnglesResponse is the body of GET /api/v1/look-angles.
type LookAnglesResponse struct {
	Metadata  Metadata `json:"metadata"`
	Azimuth   *float64 `json:"azimuth,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
	Range     *float64 `json:"range,omitempty"`
}

// TrackPoint is one ground track sample of a pass.
type TrackPoint struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Elevation float64   `json:"elevation"`
}

// Pass is one predicted pass in the requested units.
type Pass struct {
	Rise               time.Time    `json:"rise"`
	Culmination        time.Time    `json:"culmination"`
	Set                time.Time    `json:"set"`
	DurationSeconds    float64      `json:"duration_seconds"`
	MaxElevation       float64      `json:"max_elevation"`
	RiseAzimuth        float64      `json:"rise_azimuth"`
	CulminationAzimuth float64      `json:"culmination_azimuth"`
	SetAzimuth         float64      `json:"set_azimuth"`
	GroundTrack        []TrackPoint `json:"ground_track"`
}

// PassesResponse is the body of GET /api/v1/passes.
type PassesResponse struct {
	Metadata Metadata `json:"metadata"`
	Passes   []Pass   `json:"passes"`
}

// CheckPositionUnits fails with units.ErrUnspecifiedUnit when sel asks for a
// value whose unit u leaves open.
func CheckPositionUnits(sel trajectory.PositionSelection, u units.Settings) error {
	if sel.Any() && u.Distance == units.DistanceUnspecified {
		return fmt.Errorf("%w: distance_unit is required", units.ErrUnspecifiedUnit)
	}
	if sel.Geodetic && u.Angle == units.AngleUnspecified {
		return fmt.Errorf("%w: angle_unit is required for geodetic output", units.ErrUnspecifiedUnit)
	}
	return nil
}

// CheckLookAngleUnits is CheckPositionUnits for look angles.
func CheckLookAngleUnits(sel trajectory.LookAngleSelection, u units.Settings) error {
	if (sel.Azimuth || sel.Elevation) && u.Angle == units.AngleUnspecified {
		return fmt.Errorf("%w: angle_unit is required", units.ErrUnspecifiedUnit)
	}
	if sel.Range && u.Distance == units.DistanceUnspecified {
		return fmt.Errorf("%w: distance_unit is required for range", units.ErrUnspecifiedUnit)
	}
	return nil
}

func newMetadata(md trajectory.Metadata, u units.Settings) Metadata {
	return Metadata{
		Model:      md.Model,
		ComputedAt: md.ComputedAt,
		NORADID:    md.NORADID,
		Name:       md.Name,
		TLEEpoch:   md.TLEEpoch,
		Units:      u,
	}
}

// NewPositionResponse converts a position into the caller's units.
func NewPositionResponse(pos trajectory.SatellitePosition, md trajectory.Metadata, u units.Settings) (PositionResponse, error) {
	resp := PositionResponse{Metadata: newMetadata(md, u)}
	var err error

	if pos.ECI != nil {
		if resp.ECI, err = newVector3(pos.ECI.X, pos.ECI.Y, pos.ECI.Z, u.Distance); err != nil {
			return PositionResponse{}, err
		}
	}
	if pos.ECEF != nil {
		if resp.ECEF, err = newVector3(pos.ECEF.X, pos.ECEF.Y, pos.ECEF.Z, u.Distance); err != nil {
			return PositionResponse{}, err
		}
	}
	if pos.Geodetic != nil {
		if resp.Geodetic, err = newGeodetic(*pos.Geodetic, u); err != nil {
			return PositionResponse{}, err
		}
	}
	return resp, nil
}

// NewLookAnglesResponse converts look angles into the caller's units.
func NewLookAnglesResponse(la trajectory.LookAngles, md trajectory.Metadata, u units.Settings) (LookAnglesResponse, error) {
	resp := LookAnglesResponse{Metadata: newMetadata(md, u)}

	if la.Azimuth != nil {
		v, err := u.Angle.FromRadians(*la.Azimuth)
		if err != nil {
			return LookAnglesResponse{}, err
		}
		resp.Azimuth = &v
	}
	if la.Elevation != nil {
		v, err := u.Angle.FromRadians(*la.Elevation)
		if err != nil {
			return LookAnglesResponse{}, err
		}
		resp.Elevation = &v
	}
	if la.Range != nil {
		v, err := u.Distance.FromKilometers(*la.Range)
		if err != nil {
			return LookAnglesResponse{}, err
		}
		resp.Range = &v
	}
	return resp, nil
}

// CheckPassUnits requires both units; every pass carries angles and the
// ground track carries altitudes.
func CheckPassUnits(u units.Settings) error {
	if u.Angle == units.AngleUnspecified {
		return fmt.Errorf("%w: angle_unit is required", units.ErrUnspecifiedUnit)
	}
	if u.Distance == units.DistanceUnspecified {
		return fmt.Errorf("%w: distance_unit is required", units.ErrUnspecifiedUnit)
	}
	return nil
}

// NewPassesResponse converts predicted passes into the caller's units.
func NewPassesResponse(ps []passes.Pass, md trajectory.Metadata, u units.Settings) (PassesResponse, error) {
	if err := CheckPassUnits(u); err != nil {
		return PassesResponse{}, err
	}
	angle := func(rad float64) float64 {
		v, _ := u.Angle.FromRadians(rad)
		return v
	}

	resp := PassesResponse{Metadata: newMetadata(md, u), Passes: make([]Pass, 0, len(ps))}
	for _, p := range ps {
		out := Pass{
			Rise:               p.Rise,
			Culmination:        p.Culmination,
			Set:                p.Set,
			DurationSeconds:    p.Duration().Seconds(),
			MaxElevation:       angle(p.MaxElevation),
			RiseAzimuth:        angle(p.RiseAzimuth),
			CulminationAzimuth: angle(p.CulminationAzimuth),
			SetAzimuth:         angle(p.SetAzimuth),
			GroundTrack:        make([]TrackPoint, 0, len(p.Track)),
		}
		for _, pt := range p.Track {
			g, err := newGeodetic(pt.Geodetic, u)
			if err != nil {
				return PassesResponse{}, err
			}
			out.GroundTrack = append(out.GroundTrack, TrackPoint{
				Time:      pt.Time,
				Latitude:  g.Latitude,
				Longitude: g.Longitude,
				Altitude:  g.Altitude,
				Elevation: angle(pt.Elevation),
			})
		}
		resp.Passes = append(resp.Passes, out)
	}
	return resp, nil
}

func newVector3(x, y, z float64, d units.DistanceUnit) (*Vector3, error) {
	var v Vector3
	var err error
	if v.X, err = d.FromKilometers(x); err != nil {
		return nil, err
	}
	// Same unit, cannot fail once X succeeded.
	v.Y, _ = d.FromKilometers(y)
	v.Z, _ = d.FromKilometers(z)
	return &v, nil
}

func newGeodetic(g transform.Geodetic, u units.Settings) (*GeodeticOutput, error) {
	lat, err := u.Angle.FromRadians(g.Lat)
	if err != nil {
		return nil, err
	}
	lon, _ := u.Angle.FromRadians(g.Lon)
	alt, err := u.Distance.FromKilometers(g.Alt)
	if err != nil {
		return nil, err
	}
	return &GeodeticOutput{Latitude: lat, Longitude: lon, Altitude: alt}, nil
}
