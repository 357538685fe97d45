package tle

import (
	"strings"
	"time"
)

// Record is a single satellite's two-line element set.
type Record struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// EpochRange represents the minimum and maximum epoch times in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete set of TLE records from one source, indexed by
// catalog number and by name. A Dataset is immutable once built.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []Record

	byID   map[int]int
	byName map[string]int
}

// NewDataset indexes records. When a catalog number or name appears more than
// once, the record with the newest epoch wins.
func NewDataset(source string, fetchedAt time.Time, records []Record) *Dataset {
	ds := &Dataset{
		Source:     source,
		FetchedAt:  fetchedAt,
		Satellites: records,
		byID:       make(map[int]int, len(records)),
		byName:     make(map[string]int, len(records)),
	}

	for i, rec := range records {
		if i == 0 || rec.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = rec.Epoch
		}
		if i == 0 || rec.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = rec.Epoch
		}

		if j, ok := ds.byID[rec.NORADID]; !ok || rec.Epoch.After(records[j].Epoch) {
			ds.byID[rec.NORADID] = i
		}
		if key := nameKey(rec.Name); key != "" {
			if j, ok := ds.byName[key]; !ok || rec.Epoch.After(records[j].Epoch) {
				ds.byName[key] = i
			}
		}
	}

	return ds
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.Satellites)
}

// ByID returns the newest record for a catalog number.
func (d *Dataset) ByID(noradID int) (Record, bool) {
	i, ok := d.byID[noradID]
	if !ok {
		return Record{}, false
	}
	return d.Satellites[i], true
}

// ByName returns the newest record whose name matches, ignoring case and
// surrounding whitespace.
func (d *Dataset) ByName(name string) (Record, bool) {
	i, ok := d.byName[nameKey(name)]
	if !ok {
		return Record{}, false
	}
	return d.Satellites[i], true
}

func nameKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
