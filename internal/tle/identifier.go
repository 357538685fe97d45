package tle

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifier names a satellite either by NORAD catalog number or by name.
// Exactly one of the two is set.
type Identifier struct {
	NORADID int
	Name    string
}

// ByNORAD returns an identifier for a catalog number.
func ByNORAD(id int) Identifier {
	return Identifier{NORADID: id}
}

// ByName returns an identifier for a satellite name.
func ByName(name string) Identifier {
	return Identifier{Name: strings.TrimSpace(name)}
}

// IsName reports whether the identifier selects by name.
func (id Identifier) IsName() bool {
	return id.Name != ""
}

func (id Identifier) String() string {
	if id.IsName() {
		return "name:" + id.Name
	}
	return "norad:" + strconv.Itoa(id.NORADID)
}

// ParseIdentifier builds an identifier from request input. Exactly one of
// noradID and name must be non-empty; catalog numbers are positive integers.
func ParseIdentifier(noradID, name string) (Identifier, error) {
	noradID = strings.TrimSpace(noradID)
	name = strings.TrimSpace(name)

	switch {
	case noradID != "" && name != "":
		return Identifier{}, fmt.Errorf("%w: norad_id and name are mutually exclusive", ErrInvalidIdentifier)
	case noradID != "":
		n, err := strconv.Atoi(noradID)
		if err != nil || n <= 0 {
			return Identifier{}, fmt.Errorf("%w: norad_id must be a positive integer, got %q", ErrInvalidIdentifier, noradID)
		}
		return ByNORAD(n), nil
	case name != "":
		return ByName(name), nil
	default:
		return Identifier{}, fmt.Errorf("%w: norad_id or name is required", ErrInvalidIdentifier)
	}
}
