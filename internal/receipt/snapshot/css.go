package snapshot

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

type decl struct {
	prop  string
	value string
}

// parseDecls splits an inline style attribute into declarations in source
// order. Semicolons inside parentheses do not split.
func parseDecls(style string) []decl {
	var out []decl
	for _, part := range splitTop(style, ';') {
		idx := strings.IndexByte(part, ':')
		if idx <= 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(part[:idx]))
		value := strings.TrimSpace(part[idx+1:])
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if prop == "" || value == "" {
			continue
		}
		out = append(out, decl{prop: prop, value: value})
	}
	return out
}

func formatDecls(decls []decl) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// setDecl replaces prop in place or appends it.
func setDecl(decls []decl, prop, value string) []decl {
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].value = value
			return decls
		}
	}
	return append(decls, decl{prop: prop, value: value})
}

// splitTop splits s on sep outside parentheses.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// fields splits a shorthand value on whitespace outside parentheses.
func fields(s string) []string {
	var out []string
	for _, p := range splitTop(strings.Join(strings.Fields(s), " "), ' ') {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseLength reads px, pt and em lengths. em is relative to base.
func parseLength(s string, base float64) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	unit := 1.0
	switch {
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "pt"):
		s = strings.TrimSuffix(s, "pt")
		unit = 96.0 / 72.0
	case strings.HasSuffix(s, "rem"):
		s = strings.TrimSuffix(s, "rem")
		unit = defaultFontSize
	case strings.HasSuffix(s, "em"):
		s = strings.TrimSuffix(s, "em")
		unit = base
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) {
		return 0, false
	}
	return v * unit, true
}

var namedColors = map[string]color.NRGBA{
	"black":       {0x00, 0x00, 0x00, 0xff},
	"white":       {0xff, 0xff, 0xff, 0xff},
	"red":         {0xff, 0x00, 0x00, 0xff},
	"green":       {0x00, 0x80, 0x00, 0xff},
	"blue":        {0x00, 0x00, 0xff, 0xff},
	"gray":        {0x80, 0x80, 0x80, 0xff},
	"grey":        {0x80, 0x80, 0x80, 0xff},
	"silver":      {0xc0, 0xc0, 0xc0, 0xff},
	"maroon":      {0x80, 0x00, 0x00, 0xff},
	"navy":        {0x00, 0x00, 0x80, 0xff},
	"teal":        {0x00, 0x80, 0x80, 0xff},
	"olive":       {0x80, 0x80, 0x00, 0xff},
	"purple":      {0x80, 0x00, 0x80, 0xff},
	"orange":      {0xff, 0xa5, 0x00, 0xff},
	"yellow":      {0xff, 0xff, 0x00, 0xff},
	"lime":        {0x00, 0xff, 0x00, 0xff},
	"aqua":        {0x00, 0xff, 0xff, 0xff},
	"cyan":        {0x00, 0xff, 0xff, 0xff},
	"fuchsia":     {0xff, 0x00, 0xff, 0xff},
	"magenta":     {0xff, 0x00, 0xff, 0xff},
	"lightgray":   {0xd3, 0xd3, 0xd3, 0xff},
	"lightgrey":   {0xd3, 0xd3, 0xd3, 0xff},
	"darkgray":    {0xa9, 0xa9, 0xa9, 0xff},
	"darkgrey":    {0xa9, 0xa9, 0xa9, 0xff},
	"dimgray":     {0x69, 0x69, 0x69, 0xff},
	"gainsboro":   {0xdc, 0xdc, 0xdc, 0xff},
	"whitesmoke":  {0xf5, 0xf5, 0xf5, 0xff},
	"aliceblue":   {0xf0, 0xf8, 0xff, 0xff},
	"lightblue":   {0xad, 0xd8, 0xe6, 0xff},
	"darkblue":    {0x00, 0x00, 0x8b, 0xff},
	"darkgreen":   {0x00, 0x64, 0x00, 0xff},
	"darkred":     {0x8b, 0x00, 0x00, 0xff},
	"crimson":     {0xdc, 0x14, 0x3c, 0xff},
	"gold":        {0xff, 0xd7, 0x00, 0xff},
	"brown":       {0xa5, 0x2a, 0x2a, 0xff},
	"pink":        {0xff, 0xc0, 0xcb, 0xff},
	"beige":       {0xf5, 0xf5, 0xdc, 0xff},
	"ivory":       {0xff, 0xff, 0xf0, 0xff},
	"transparent": {0x00, 0x00, 0x00, 0x00},
}

// parseColor accepts hex, rgb()/rgba(), hsl()/hsla() and named colours.
func parseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v[1:])
	}
	if open := strings.IndexByte(v, '('); open > 0 && strings.HasSuffix(v, ")") {
		name := v[:open]
		args := colorArgs(v[open+1 : len(v)-1])
		switch name {
		case "rgb", "rgba":
			return parseRGB(args, s)
		case "hsl", "hsla":
			return parseHSL(args, s)
		}
	}
	return color.NRGBA{}, fmt.Errorf("unsupported color %q", s)
}

func parseHex(h string) (color.NRGBA, error) {
	expand := func(c byte) string { return string([]byte{c, c}) }
	switch len(h) {
	case 3:
		h = expand(h[0]) + expand(h[1]) + expand(h[2]) + "ff"
	case 4:
		h = expand(h[0]) + expand(h[1]) + expand(h[2]) + expand(h[3])
	case 6:
		h += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", "#"+h)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", "#"+h)
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// colorArgs splits both "1, 2, 3" and "1 2 3 / 0.5".
func colorArgs(s string) []string {
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, "/", " ")
	return strings.Fields(s)
}

func channel(s string, max float64) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp(v/100*max, 0, max), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp(v, 0, max), true
}

func alpha(args []string, idx int) (uint8, bool) {
	if len(args) <= idx {
		return 0xff, true
	}
	a, ok := channel(args[idx], 1)
	if !ok {
		return 0, false
	}
	return uint8(math.Round(a * 255)), true
}

func parseRGB(args []string, raw string) (color.NRGBA, error) {
	if len(args) < 3 || len(args) > 4 {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", raw)
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := channel(args[i], 255)
		if !ok {
			return color.NRGBA{}, fmt.Errorf("unsupported color %q", raw)
		}
		rgb[i] = uint8(math.Round(v))
	}
	a, ok := alpha(args, 3)
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", raw)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: a}, nil
}

func parseHSL(args []string, raw string) (color.NRGBA, error) {
	if len(args) < 3 || len(args) > 4 {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", raw)
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", raw)
	}
	sat, ok1 := channel(args[1], 1)
	light, ok2 := channel(args[2], 1)
	a, ok3 := alpha(args, 3)
	if !ok1 || !ok2 || !ok3 {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", raw)
	}

	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	var r, g, b float64
	if sat == 0 {
		r, g, b = light, light, light
	} else {
		var q float64
		if light < 0.5 {
			q = light * (1 + sat)
		} else {
			q = light + sat - light*sat
		}
		p := 2*light - q
		r = hueToRGB(p, q, h+1.0/3)
		g = hueToRGB(p, q, h)
		b = hueToRGB(p, q, h-1.0/3)
	}
	return color.NRGBA{
		R: uint8(math.Round(r * 255)),
		G: uint8(math.Round(g * 255)),
		B: uint8(math.Round(b * 255)),
		A: a,
	}, nil
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func removeDecl(decls []decl, prop string) []decl {
	out := decls[:0]
	for _, d := range decls {
		if d.prop != prop {
			out = append(out, d)
		}
	}
	return out
}
