package render

import (
	"fmt"
	"image/color"
	"strconv"
)

// ParseHex parses a CSS-style hex colour without the leading
// '#', in either the 3 or 6 digit form.
func ParseHex(s string) (color.NRGBA, error) {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}

// hexOr parses s, falling back to def when s is empty or bad.
func hexOr(s string, def color.NRGBA) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		return def
	}
	return c
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	alpha = max(0, min(alpha, 1))
	c.A = uint8(alpha*255 + 0.5)
	return c
}
