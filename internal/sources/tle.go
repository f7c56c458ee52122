package sources

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TLE is a two-line element set for one satellite.
type TLE struct {
	Name    string
	NORADID int
	Epoch   time.Time
	Line1   string
	Line2   string
}

// TLE fetches the ISS element set.
func (c *Client) TLE(ctx context.Context) (TLE, error) {
	body, err := c.get(ctx, c.endpoints.TLE, "text/plain")
	if err != nil {
		return TLE{}, err
	}
	return ParseTLE(body)
}

// ParseTLE reads the first element set from 2-line or 3-line NORAD text.
func ParseTLE(data []byte) (TLE, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return TLE{}, fmt.Errorf("reading TLE data: %w", err)
	}

	for i := 0; i+1 < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "1 ") || !strings.HasPrefix(lines[i+1], "2 ") {
			continue
		}
		name := ""
		if i > 0 {
			name = strings.TrimSpace(strings.TrimPrefix(lines[i-1], "0 "))
		}
		return newTLE(name, lines[i], lines[i+1])
	}
	return TLE{}, fmt.Errorf("no element set found in %d lines", len(lines))
}

func newTLE(name, line1, line2 string) (TLE, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return TLE{}, err
	}

	noradStr := strings.TrimSpace(line1[2:7])
	noradID, err := strconv.Atoi(noradStr)
	if err != nil {
		return TLE{}, fmt.Errorf("invalid NORAD ID %q: %w", noradStr, err)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return TLE{}, err
	}

	return TLE{
		Name:    name,
		NORADID: noradID,
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// validateTLELines checks format and checksums. The SGP4 library exits the
// process on unparseable input, so nothing reaches it unchecked.
func validateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	for n, line := range []string{line1, line2} {
		if want, got := tleChecksum(line), int(line[68]-'0'); want != got {
			return fmt.Errorf("line%d checksum %d, expected %d", n+1, got, want)
		}
	}

	// Fields go-satellite parses with strconv.
	fields := []struct {
		name string
		text string
	}{
		{"inclination", line2[8:16]},
		{"raan", line2[17:25]},
		{"eccentricity", "." + line2[26:33]},
		{"arg of perigee", line2[34:42]},
		{"mean anomaly", line2[43:51]},
		{"mean motion", line2[52:63]},
	}
	for _, f := range fields {
		if _, err := strconv.ParseFloat(strings.TrimSpace(f.text), 64); err != nil {
			return fmt.Errorf("invalid %s %q", f.name, f.text)
		}
	}
	return nil
}

// tleChecksum is the modulo-10 sum of digits on the first 68 columns,
// counting '-' as 1.
func tleChecksum(line string) int {
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
