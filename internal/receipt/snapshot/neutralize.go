package snapshot

import (
	"strings"

	"golang.org/x/net/html"
)

// unsupportedColorFuncs are CSS colour functions the rasterizer cannot
// interpret.
var unsupportedColorFuncs = map[string]bool{
	"oklch":     true,
	"oklab":     true,
	"lab":       true,
	"lch":       true,
	"color":     true,
	"color-mix": true,
	"hwb":       true,
}

// colorAttrs are legacy presentational attributes that carry colours.
var colorAttrs = []string{"color", "bgcolor"}

// neutralizeColors rewrites every unsupported colour function under root
// to fallback and returns the number of replacements.
func neutralizeColors(root *html.Node, fallback string) int {
	replaced := 0
	walkElements(root, func(n *html.Node) {
		if v, ok := attr(n, "style"); ok {
			if out, count := replaceColorFuncs(v, fallback); count > 0 {
				setAttr(n, "style", out)
				replaced += count
			}
		}
		for _, key := range colorAttrs {
			if v, ok := attr(n, key); ok {
				if out, count := replaceColorFuncs(v, fallback); count > 0 {
					setAttr(n, key, out)
					replaced += count
				}
			}
		}
	})
	return replaced
}

// replaceColorFuncs substitutes whole unsupported function calls,
// including nested arguments such as color-mix(in srgb, oklch(...), red).
func replaceColorFuncs(value, fallback string) (string, int) {
	var b strings.Builder
	count := 0
	i := 0
	for i < len(value) {
		if !isIdentStart(value[i]) || (i > 0 && isIdentChar(value[i-1])) {
			b.WriteByte(value[i])
			i++
			continue
		}

		j := i
		for j < len(value) && isIdentChar(value[j]) {
			j++
		}
		name := strings.ToLower(value[i:j])
		if j < len(value) && value[j] == '(' && unsupportedColorFuncs[name] {
			end := matchParen(value, j)
			b.WriteString(fallback)
			count++
			i = end
			continue
		}
		b.WriteString(value[i:j])
		i = j
	}
	return b.String(), count
}

// matchParen returns the index just past the parenthesis closing the one
// at open, or len(s) when it is unbalanced.
func matchParen(s string, open int) int {
	depth := 0
	for k := open; k < len(s); k++ {
		switch s[k] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return k + 1
			}
		}
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '-' || c == '_'
}
