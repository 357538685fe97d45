// Package propagation adapts the SGP4 implementation in
// github.com/joshuaferrara/go-satellite to a kernel that maps an element set
// and a UTC instant to an ECI position.
package propagation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/trajectory/internal/tle"
)

var (
	// ErrElementParse means the TLE text could not be turned into an
	// initialized SGP4 record.
	ErrElementParse = errors.New("element set parse failed")

	// ErrPropagationDivergence means SGP4 produced a non-physical state.
	ErrPropagationDivergence = errors.New("propagation diverged")
)

// ElementSet is an initialized SGP4 record plus the identity of the satellite
// it describes. It is immutable and safe for concurrent use.
type ElementSet struct {
	Name    string
	NORADID int
	Epoch   time.Time

	sat satellite.Satellite

	// epochOffset is the TLE epoch minus the whole-second epoch that
	// go-satellite stores internally.
	epochOffset time.Duration
}

// ParseElements validates a two-line element set and initializes the SGP4
// record for it (WGS-72 constants, the set TLEs are fitted with).
//
// go-satellite aborts the process on unparseable numeric fields, so every
// field it reads is checked here first with the same column slicing.
func ParseElements(name, line1, line2 string) (*ElementSet, error) {
	rec, err := tle.ParseRecord(name, line1, line2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrElementParse, err)
	}

	epochDays, err := validateFields(rec.Line1, rec.Line2)
	if err != nil {
		return nil, fmt.Errorf("%w: NORAD %d: %v", ErrElementParse, rec.NORADID, err)
	}

	sat := satellite.TLEToSat(rec.Line1, rec.Line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: NORAD %d: sgp4 init failed: code=%d %s",
			ErrElementParse, rec.NORADID, sat.Error, sat.ErrorStr)
	}

	return &ElementSet{
		Name:        rec.Name,
		NORADID:     rec.NORADID,
		Epoch:       rec.Epoch,
		sat:         sat,
		epochOffset: truncatedEpochOffset(epochDays),
	}, nil
}

// FromRecord is ParseElements for a record obtained from a tle.Source.
func FromRecord(rec tle.Record) (*ElementSet, error) {
	return ParseElements(rec.Name, rec.Line1, rec.Line2)
}

// libField is one numeric TLE field as go-satellite extracts it.
type libField struct {
	name  string
	value func(l1, l2 string) string
	check func(v float64) error
}

func positive(v float64) error {
	if v <= 0 {
		return fmt.Errorf("must be positive, got %g", v)
	}
	return nil
}

func stripSpaces(s string) string {
	return strings.Replace(s, " ", "", 2)
}

var libFields = []libField{
	{name: "epoch day", value: func(l1, _ string) string { return l1[20:32] }},
	{name: "ndot", value: func(l1, _ string) string { return stripSpaces(l1[33:43]) }},
	{name: "nddot", value: func(l1, _ string) string { return stripSpaces(l1[44:45] + "." + l1[45:50] + "e" + l1[50:52]) }},
	{name: "bstar", value: func(l1, _ string) string { return stripSpaces(l1[53:54] + "." + l1[54:59] + "e" + l1[59:61]) }},
	{name: "inclination", value: func(_, l2 string) string { return stripSpaces(l2[8:16]) }},
	{name: "raan", value: func(_, l2 string) string { return stripSpaces(l2[17:25]) }},
	{name: "eccentricity", value: func(_, l2 string) string { return "." + l2[26:33] }},
	{name: "argument of perigee", value: func(_, l2 string) string { return stripSpaces(l2[34:42]) }},
	{name: "mean anomaly", value: func(_, l2 string) string { return stripSpaces(l2[43:51]) }},
	{name: "mean motion", value: func(_, l2 string) string { return stripSpaces(l2[52:63]) }, check: positive},
}

// validateFields parses every field go-satellite reads and returns the epoch
// day-of-year. Lines must already be 69 columns.
func validateFields(line1, line2 string) (float64, error) {
	if _, err := strconv.Atoi(line1[18:20]); err != nil {
		return 0, fmt.Errorf("invalid epoch year %q", line1[18:20])
	}

	var epochDays float64
	for _, f := range libFields {
		raw := f.value(line1, line2)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", f.name, raw)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid %s %q", f.name, raw)
		}
		if f.check != nil {
			if err := f.check(v); err != nil {
				return 0, fmt.Errorf("%s %w", f.name, err)
			}
		}
		if f.name == "epoch day" {
			epochDays = v
		}
	}
	return epochDays, nil
}

// truncatedEpochOffset returns how far the TLE epoch lies after the epoch
// go-satellite keeps, which drops the fractional second of the epoch time of
// day (hours and minutes floored, seconds truncated, as in its days2mdhms).
func truncatedEpochOffset(epochDays float64) time.Duration {
	dayFrac := epochDays - math.Floor(epochDays)

	temp := dayFrac * 24.0
	hr := math.Floor(temp)
	temp = (temp - hr) * 60.0
	min := math.Floor(temp)
	sec := (temp - min) * 60.0

	kept := hr*3600 + min*60 + math.Trunc(sec)
	offset := dayFrac*86400.0 - kept

	return time.Duration(math.Round(offset * float64(time.Second)))
}
