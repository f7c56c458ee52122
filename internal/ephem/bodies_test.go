package ephem

import (
	"errors"
	"testing"
)

func TestParseBody_KnownBodies(t *testing.T) {
	tests := []struct {
		name     string
		expected Body
	}{
		{"Sun", Sun},
		{"sun", Sun},
		{"SOL", Sun}, // alias
		{"Moon", Moon},
		{"luna", Moon}, // alias
		{"mercury", Mercury},
		{"Venus", Venus},
		{" Mars ", Mars},
		{"JUPITER", Jupiter},
		{"Saturn", Saturn},
		{"Uranus", Uranus},
		{"Neptune", Neptune},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseBody(tc.name)
			if err != nil {
				t.Fatalf("ParseBody(%q) error: %v", tc.name, err)
			}
			if got != tc.expected {
				t.Errorf("ParseBody(%q) = %v, want %v", tc.name, got, tc.expected)
			}
		})
	}
}

func TestParseBody_Unknown(t *testing.T) {
	_, err := ParseBody("Pluto")
	if !errors.Is(err, ErrUnknownBody) {
		t.Errorf("ParseBody(Pluto) error = %v, want ErrUnknownBody", err)
	}
}

func TestCatalog_Order(t *testing.T) {
	want := []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune}
	got := AllBodies()
	if len(got) != len(want) {
		t.Fatalf("AllBodies() has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllBodies()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCatalog_Coverage(t *testing.T) {
	// Every catalog entry must resolve by name and by ID
	for _, info := range Catalog {
		if _, ok := GetBodyInfo(info.Body); !ok {
			t.Errorf("Body %s missing from ID lookup", info.Name)
		}
		if b, err := ParseBody(info.Name); err != nil || b != info.Body {
			t.Errorf("ParseBody(%q) = %v, %v", info.Name, b, err)
		}
		if info.Symbol == "" {
			t.Errorf("Body %s has no symbol", info.Name)
		}
	}
}

func TestBodyString(t *testing.T) {
	if Jupiter.String() != "Jupiter" {
		t.Errorf("Jupiter.String() = %q", Jupiter.String())
	}
	if Body(99).String() != "Body(99)" {
		t.Errorf("Body(99).String() = %q", Body(99).String())
	}
	if Body(99).Symbol() != "?" {
		t.Errorf("Body(99).Symbol() = %q", Body(99).Symbol())
	}
}

func TestBodyText(t *testing.T) {
	text, err := Saturn.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "Saturn" {
		t.Errorf("MarshalText = %q, want Saturn", text)
	}

	var b Body
	if err := b.UnmarshalText([]byte("saturn")); err != nil {
		t.Fatal(err)
	}
	if b != Saturn {
		t.Errorf("UnmarshalText = %v, want Saturn", b)
	}

	if _, err := Body(-1).MarshalText(); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("MarshalText unknown error = %v", err)
	}
}
