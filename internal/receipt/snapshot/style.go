package snapshot

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultFontSize = 13.0
	lineHeight      = 1.35
	cellPadding     = 3.0
)

var (
	black = color.NRGBA{A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

type edges struct {
	top, right, bottom, left float64
}

type border struct {
	width float64
	color color.NRGBA
}

// style is the computed style of one element in CSS pixels.
type style struct {
	color      color.NRGBA
	background color.NRGBA
	fontSize   float64
	bold       bool
	align      string

	padding edges
	margin  edges
	borders [4]border // top, right, bottom, left

	width  float64
	height float64
}

func rootStyle() style {
	return style{color: black, fontSize: defaultFontSize, align: "left"}
}

// inherit keeps the inherited properties of parent and resets the rest.
func (s style) inherit() style {
	return style{
		color:    s.color,
		fontSize: s.fontSize,
		bold:     s.bold,
		align:    s.align,
	}
}

func (s style) lineHeight() float64 {
	return s.fontSize * lineHeight
}

func (s style) insets() edges {
	return edges{
		top:    s.padding.top + s.borders[0].width,
		right:  s.padding.right + s.borders[1].width,
		bottom: s.padding.bottom + s.borders[2].width,
		left:   s.padding.left + s.borders[3].width,
	}
}

// computeStyle resolves n's style from parent, tag defaults, legacy
// attributes and the inline style attribute, in that order.
func computeStyle(n *html.Node, parent style) (style, error) {
	s := parent.inherit()
	if n.Type != html.ElementNode {
		return s, nil
	}

	switch n.DataAtom {
	case atom.H1:
		s.fontSize, s.bold = 22, true
		s.margin = edges{top: 4, bottom: 6}
	case atom.H2:
		s.fontSize, s.bold = 17, true
		s.margin = edges{top: 4, bottom: 6}
	case atom.H3:
		s.fontSize, s.bold = 15, true
		s.margin = edges{top: 6, bottom: 4}
	case atom.P:
		s.margin = edges{top: 3, bottom: 3}
	case atom.Table:
		s.margin = edges{top: 4, bottom: 4}
	case atom.Th:
		s.bold, s.align = true, "center"
		s.padding = edges{cellPadding, cellPadding, cellPadding, cellPadding}
	case atom.Td:
		s.padding = edges{cellPadding, cellPadding, cellPadding, cellPadding}
	case atom.B, atom.Strong:
		s.bold = true
	case atom.Small:
		s.fontSize *= 0.85
	case atom.Hr:
		s.margin = edges{top: 6, bottom: 6}
		s.borders[0] = border{width: 1, color: color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}}
	}

	if v, ok := attr(n, "bgcolor"); ok {
		c, err := parseColor(v)
		if err != nil {
			return s, err
		}
		s.background = c
	}
	if v, ok := attr(n, "color"); ok {
		c, err := parseColor(v)
		if err != nil {
			return s, err
		}
		s.color = c
	}
	if v, ok := attr(n, "align"); ok {
		s.align = strings.ToLower(v)
	}

	if v, ok := attr(n, "style"); ok {
		for _, d := range parseDecls(v) {
			if err := s.apply(d, parent); err != nil {
				return s, fmt.Errorf("<%s> %s: %w", n.Data, d.prop, err)
			}
		}
	}
	return s, nil
}

func (s *style) apply(d decl, parent style) error {
	switch d.prop {
	case "color":
		c, err := resolveColor(d.value, parent.color)
		if err != nil {
			return err
		}
		s.color = c
	case "background-color":
		c, err := resolveColor(d.value, s.color)
		if err != nil {
			return err
		}
		s.background = c
	case "background":
		// Only the colour component is painted.
		for _, part := range fields(d.value) {
			if c, err := resolveColor(part, s.color); err == nil {
				s.background = c
				return nil
			}
		}
		return fmt.Errorf("unsupported background %q", d.value)
	case "font-size":
		if v, ok := parseLength(d.value, parent.fontSize); ok && v > 0 {
			s.fontSize = v
		}
	case "font-weight":
		v := strings.ToLower(d.value)
		s.bold = v == "bold" || v == "bolder" || v >= "600" && len(v) == 3
	case "text-align":
		s.align = strings.ToLower(d.value)
	case "padding":
		s.padding = parseEdges(d.value, s.fontSize)
	case "padding-top", "padding-right", "padding-bottom", "padding-left":
		if v, ok := parseLength(d.value, s.fontSize); ok {
			setEdge(&s.padding, strings.TrimPrefix(d.prop, "padding-"), v)
		}
	case "margin":
		s.margin = parseEdges(d.value, s.fontSize)
	case "margin-top", "margin-bottom":
		if v, ok := parseLength(d.value, s.fontSize); ok {
			setEdge(&s.margin, strings.TrimPrefix(d.prop, "margin-"), v)
		}
	case "border":
		b, err := parseBorder(d.value, s.color)
		if err != nil {
			return err
		}
		s.borders = [4]border{b, b, b, b}
	case "border-top", "border-right", "border-bottom", "border-left":
		b, err := parseBorder(d.value, s.color)
		if err != nil {
			return err
		}
		s.borders[sideIndex(strings.TrimPrefix(d.prop, "border-"))] = b
	case "border-color":
		c, err := resolveColor(d.value, s.color)
		if err != nil {
			return err
		}
		for i := range s.borders {
			s.borders[i].color = c
		}
	case "width":
		if v, ok := parseLength(d.value, s.fontSize); ok {
			s.width = v
		}
	case "height", "min-height":
		if v, ok := parseLength(d.value, s.fontSize); ok {
			s.height = v
		}
	}
	return nil
}

func resolveColor(v string, current color.NRGBA) (color.NRGBA, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "currentcolor", "inherit":
		return current, nil
	}
	return parseColor(v)
}

// parseEdges reads the one to four value padding/margin shorthand.
func parseEdges(v string, base float64) edges {
	var vals []float64
	for _, p := range fields(v) {
		l, ok := parseLength(p, base)
		if !ok {
			l = 0
		}
		vals = append(vals, l)
	}
	switch len(vals) {
	case 1:
		return edges{vals[0], vals[0], vals[0], vals[0]}
	case 2:
		return edges{vals[0], vals[1], vals[0], vals[1]}
	case 3:
		return edges{vals[0], vals[1], vals[2], vals[1]}
	case 4:
		return edges{vals[0], vals[1], vals[2], vals[3]}
	}
	return edges{}
}

func setEdge(e *edges, side string, v float64) {
	switch side {
	case "top":
		e.top = v
	case "right":
		e.right = v
	case "bottom":
		e.bottom = v
	case "left":
		e.left = v
	}
}

func sideIndex(side string) int {
	switch side {
	case "right":
		return 1
	case "bottom":
		return 2
	case "left":
		return 3
	}
	return 0
}

// parseBorder reads "<width> <style> <color>" in any order.
func parseBorder(v string, current color.NRGBA) (border, error) {
	b := border{width: 1, color: current}
	for _, part := range fields(v) {
		switch strings.ToLower(part) {
		case "none", "hidden":
			return border{}, nil
		case "solid", "dashed", "dotted", "double":
			continue
		}
		if w, ok := parseLength(part, defaultFontSize); ok {
			b.width = w
			continue
		}
		c, err := resolveColor(part, current)
		if err != nil {
			return border{}, err
		}
		b.color = c
	}
	return b, nil
}
