package snapshot

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#1F3B73", color.NRGBA{0x1f, 0x3b, 0x73, 0xff}},
		{"#11223380", color.NRGBA{0x11, 0x22, 0x33, 0x80}},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}},
		{"rgba(10 20 30 / 0.5)", color.NRGBA{10, 20, 30, 128}},
		{"rgb(100%, 0%, 0%)", color.NRGBA{255, 0, 0, 255}},
		{"hsl(120, 100%, 25%)", color.NRGBA{0, 128, 0, 255}},
		{"Navy", color.NRGBA{0, 0, 0x80, 0xff}},
		{"transparent", color.NRGBA{}},
	}
	for _, tt := range tests {
		got, err := parseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"oklch(0.5 0.1 200)", "#12", "rgb(1, 2)", "notacolor", ""} {
		_, err := parseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDecls(t *testing.T) {
	decls := parseDecls(" Color: red ; background: url(a;b) ; ; width:10px !important")
	assert.Equal(t, []decl{
		{prop: "color", value: "red"},
		{prop: "background", value: "url(a;b)"},
		{prop: "width", value: "10px"},
	}, decls)

	decls = setDecl(decls, "width", "794px")
	decls = removeDecl(decls, "background")
	assert.Equal(t, "color: red; width: 794px", formatDecls(decls))
}

func TestParseLength(t *testing.T) {
	v, ok := parseLength("12px", 13)
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)

	v, ok = parseLength("1.5em", 10)
	assert.True(t, ok)
	assert.Equal(t, 15.0, v)

	v, ok = parseLength("9pt", 13)
	assert.True(t, ok)
	assert.InDelta(t, 12.0, v, 1e-9)

	_, ok = parseLength("auto", 13)
	assert.False(t, ok)
}

func TestParseEdges(t *testing.T) {
	assert.Equal(t, edges{4, 4, 4, 4}, parseEdges("4px", 13))
	assert.Equal(t, edges{1, 2, 1, 2}, parseEdges("1px 2px", 13))
	assert.Equal(t, edges{1, 2, 3, 4}, parseEdges("1px 2px 3px 4px", 13))
}

func TestParseBorder(t *testing.T) {
	b, err := parseBorder("2px solid #999999", black)
	require.NoError(t, err)
	assert.Equal(t, border{width: 2, color: color.NRGBA{0x99, 0x99, 0x99, 0xff}}, b)

	b, err = parseBorder("none", black)
	require.NoError(t, err)
	assert.Equal(t, border{}, b)

	_, err = parseBorder("1px solid oklch(0.5 0.1 10)", black)
	assert.Error(t, err)
}
