package units

import (
	"errors"
	"math"
	"testing"
)

func TestParseAngleUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    AngleUnit
		wantErr bool
	}{
		{"", AngleUnspecified, false},
		{"degrees", Degrees, false},
		{" DEG ", Degrees, false},
		{"rad", Radians, false},
		{"Radians", Radians, false},
		{"gradians", AngleUnspecified, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAngleUnit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownUnit) {
				t.Errorf("err = %v, want ErrUnknownUnit", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDistanceUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    DistanceUnit
		wantErr bool
	}{
		{"", DistanceUnspecified, false},
		{"m", Meters, false},
		{"kilometers", Kilometers, false},
		{"KM", Kilometers, false},
		{"mi", Miles, false},
		{"furlongs", DistanceUnspecified, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDistanceUnit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	deg, err := Degrees.FromRadians(math.Pi / 2)
	if err != nil || math.Abs(deg-90) > 1e-12 {
		t.Errorf("FromRadians(π/2) = %v, %v; want 90", deg, err)
	}
	rad, err := Degrees.ToRadians(180)
	if err != nil || math.Abs(rad-math.Pi) > 1e-12 {
		t.Errorf("ToRadians(180) = %v, %v; want π", rad, err)
	}

	tests := []struct {
		unit DistanceUnit
		km   float64
		want float64
	}{
		{Kilometers, 420.5, 420.5},
		{Meters, 420.5, 420500},
		{Miles, 1.609344, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			got, err := tt.unit.FromKilometers(tt.km)
			if err != nil || math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("FromKilometers(%v) = %v, %v; want %v", tt.km, got, err, tt.want)
			}
			back, err := tt.unit.ToKilometers(got)
			if err != nil || math.Abs(back-tt.km) > 1e-9 {
				t.Errorf("ToKilometers(%v) = %v, %v; want %v", got, back, err, tt.km)
			}
		})
	}
}

func TestUnspecifiedUnitIsAnError(t *testing.T) {
	if _, err := AngleUnspecified.FromRadians(1); !errors.Is(err, ErrUnspecifiedUnit) {
		t.Errorf("angle: err = %v, want ErrUnspecifiedUnit", err)
	}
	if _, err := DistanceUnspecified.FromKilometers(1); !errors.Is(err, ErrUnspecifiedUnit) {
		t.Errorf("distance: err = %v, want ErrUnspecifiedUnit", err)
	}
	if _, err := AngleUnit("turns").ToRadians(1); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("unknown angle: err = %v, want ErrUnknownUnit", err)
	}
}
