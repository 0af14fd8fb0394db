package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// CoalescePtr returns p, or a pointer to def when p is nil. Unlike Coalesce it keeps
// an explicitly set zero value.
//
// Parameters:
//   - p: the optional value
//   - def: the value used when p is unset
//
// Returns:
//   - *T: p, or a pointer to a copy of def
func CoalescePtr[T any](p *T, def T) *T {
	if p != nil {
		return p
	}
	return &def
}

// ParseHexColor parses a CSS-style hex color ("#rrggbb", "#rgb", with or without
// the leading '#') into normalized RGBA components with alpha set to 1.
//
// Parameters:
//   - s: the hex color string
//
// Returns:
//   - [4]float32: the color as (r, g, b, a) in [0, 1]
//   - error: an error if the string is not a valid hex color
func ParseHexColor(s string) ([4]float32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return [4]float32{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return [4]float32{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return [4]float32{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
		1,
	}, nil
}
