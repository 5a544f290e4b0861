package scene_test

import (
	"errors"
	"testing"

	"github.com/distantsignal/distantsignal/internal/apperr"
	"github.com/distantsignal/distantsignal/internal/scene"
)

func TestParseRGB(t *testing.T) {
	cases := []struct {
		in   string
		want scene.RGB
	}{
		{"#FF2800", scene.RGB{R: 0xFF, G: 0x28, B: 0x00}},
		{"00ff00", scene.RGB{G: 0xFF}},
		{"#000000", scene.RGB{}},
	}
	for _, tc := range cases {
		got, err := scene.ParseRGB(tc.in)
		if err != nil {
			t.Errorf("ParseRGB(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRGB(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRGBErrors(t *testing.T) {
	for _, in := range []any{"red", "#12345", "#GGGGGG", "", 0xFF0000, nil} {
		if _, err := scene.ParseRGB(in); !errors.Is(err, apperr.ErrMalformedDocument) {
			t.Errorf("ParseRGB(%v): err = %v, want ErrMalformedDocument", in, err)
		}
	}
}

func TestRGBHexAndString(t *testing.T) {
	c := scene.RGB{R: 0xFF, G: 0x28, B: 0x00}
	if c.Hex() != 0xFF2800 {
		t.Errorf("Hex() = %#x", c.Hex())
	}
	if c.String() != "#ff2800" {
		t.Errorf("String() = %q", c.String())
	}
}
