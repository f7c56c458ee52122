package ephem

import (
	"fmt"
	"strings"

	"github.com/litescript/ls-spacelight/internal/astro"
)

// Body identifies a solar-system body the dashboard can place on the sky.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
)

// BodyInfo contains display and lookup information for a body.
type BodyInfo struct {
	Body     Body
	Name     string
	Symbol   string   // Single-glyph marker for compact views
	Aliases  []string // Alternative names accepted by ParseBody
	planet   astro.Planet
	isPlanet bool
}

// Catalog is the canonical list of bodies in display order.
var Catalog = []BodyInfo{
	{Body: Sun, Name: "Sun", Symbol: "☉", Aliases: []string{"sol"}},
	{Body: Moon, Name: "Moon", Symbol: "☾", Aliases: []string{"luna"}},
	{Body: Mercury, Name: "Mercury", Symbol: "☿", planet: astro.Mercury, isPlanet: true},
	{Body: Venus, Name: "Venus", Symbol: "♀", planet: astro.Venus, isPlanet: true},
	{Body: Mars, Name: "Mars", Symbol: "♂", planet: astro.Mars, isPlanet: true},
	{Body: Jupiter, Name: "Jupiter", Symbol: "♃", planet: astro.Jupiter, isPlanet: true},
	{Body: Saturn, Name: "Saturn", Symbol: "♄", planet: astro.Saturn, isPlanet: true},
	{Body: Uranus, Name: "Uranus", Symbol: "⛢", planet: astro.Uranus, isPlanet: true},
	{Body: Neptune, Name: "Neptune", Symbol: "♆", planet: astro.Neptune, isPlanet: true},
}

// AllBodies returns the catalog bodies in display order.
func AllBodies() []Body {
	out := make([]Body, len(Catalog))
	for i, info := range Catalog {
		out[i] = info.Body
	}
	return out
}

// bodiesByID maps bodies to catalog entries for quick lookup.
var bodiesByID = func() map[Body]BodyInfo {
	m := make(map[Body]BodyInfo, len(Catalog))
	for _, info := range Catalog {
		m[info.Body] = info
	}
	return m
}()

// bodiesByName maps lowercase names and aliases to catalog entries.
var bodiesByName = func() map[string]BodyInfo {
	m := make(map[string]BodyInfo, len(Catalog)*2)
	for _, info := range Catalog {
		m[strings.ToLower(info.Name)] = info
		for _, alias := range info.Aliases {
			m[strings.ToLower(alias)] = info
		}
	}
	return m
}()

// String returns the body name.
func (b Body) String() string {
	if info, ok := bodiesByID[b]; ok {
		return info.Name
	}
	return fmt.Sprintf("Body(%d)", int(b))
}

// Symbol returns the body's glyph, or "?" if unknown.
func (b Body) Symbol() string {
	if info, ok := bodiesByID[b]; ok {
		return info.Symbol
	}
	return "?"
}

// Known reports whether b is in the catalog.
func (b Body) Known() bool {
	_, ok := bodiesByID[b]
	return ok
}

// MarshalText encodes the body by name.
func (b Body) MarshalText() ([]byte, error) {
	if !b.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBody, int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText decodes a body name.
func (b *Body) UnmarshalText(text []byte) error {
	v, err := ParseBody(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBody returns the body for a name or alias (case-insensitive).
func ParseBody(name string) (Body, error) {
	info, ok := bodiesByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBody, name)
	}
	return info.Body, nil
}

// GetBodyInfo returns catalog info for a body.
func GetBodyInfo(b Body) (BodyInfo, bool) {
	info, ok := bodiesByID[b]
	return info, ok
}
