package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// lineLength is the fixed width of a TLE data line.
const lineLength = 69

// Parse reads 3-line NORAD TLE format from r and returns parsed records.
// Malformed entries are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var records []Record
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		// Resynchronize on the next name line.
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			logger.Warn("skipping malformed TLE entry", "component", "tle", "line_index", i, "name", name)
			i++
			continue
		}

		rec, err := ParseRecord(name, line1, line2)
		if err != nil {
			logger.Warn("skipping invalid TLE entry", "component", "tle", "name", name, "error", err)
			i += 3
			continue
		}

		records = append(records, rec)
		i += 3
	}

	return records, nil
}

// ParseRecord validates one name + two-line element set and extracts its
// catalog number and epoch. Checksums are not verified.
func ParseRecord(name, line1, line2 string) (Record, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if len(line1) != lineLength {
		return Record{}, fmt.Errorf("%w: line1 length %d, expected %d", ErrMalformed, len(line1), lineLength)
	}
	if len(line2) != lineLength {
		return Record{}, fmt.Errorf("%w: line2 length %d, expected %d", ErrMalformed, len(line2), lineLength)
	}
	if line1[0] != '1' || line1[1] != ' ' {
		return Record{}, fmt.Errorf("%w: line1 must start with \"1 \"", ErrMalformed)
	}
	if line2[0] != '2' || line2[1] != ' ' {
		return Record{}, fmt.Errorf("%w: line2 must start with \"2 \"", ErrMalformed)
	}

	// Catalog number is cols 3-7 on both lines.
	noradStr := strings.TrimSpace(line1[2:7])
	noradID, err := strconv.Atoi(noradStr)
	if err != nil || noradID <= 0 {
		return Record{}, fmt.Errorf("%w: invalid NORAD ID %q", ErrMalformed, noradStr)
	}
	if other := strings.TrimSpace(line2[2:7]); other != noradStr {
		return Record{}, fmt.Errorf("%w: NORAD ID mismatch between lines (%q vs %q)", ErrMalformed, noradStr, other)
	}

	// Epoch is cols 19-32 of line1.
	epochStr := strings.TrimSpace(line1[18:32])
	epoch, err := parseEpoch(epochStr)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return Record{
		NORADID: noradID,
		Name:    cleanName(name),
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// cleanName strips the "0 " prefix used by the 3LE variant of the format.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "0 ") {
		name = strings.TrimSpace(name[2:])
	}
	return name
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	yearStr := s[:2]
	dayStr := s[2:]

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 0 {
		return time.Time{}, fmt.Errorf("invalid epoch year %q", yearStr)
	}

	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(dayStr, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", dayStr, err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %q out of range", dayStr)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	dur := time.Duration((dayOfYear - 1) * float64(24*time.Hour))

	return t.Add(dur), nil
}
