package snapshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestReplaceColorFuncs(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		count int
	}{
		{
			name:  "oklch foreground",
			in:    "color: oklch(0.5 0.2 240); font-size: 12px",
			want:  "color: #000000; font-size: 12px",
			count: 1,
		},
		{
			name:  "nested color-mix",
			in:    "background: color-mix(in srgb, oklch(1 0 0), red) no-repeat",
			want:  "background: #000000 no-repeat",
			count: 1,
		},
		{
			name:  "color function after background-color",
			in:    "background-color: color(display-p3 1 0 0)",
			want:  "background-color: #000000",
			count: 1,
		},
		{
			name:  "several functions",
			in:    "color: LAB(50% 40 59); border: 1px solid hwb(194 0% 0%)",
			want:  "color: #000000; border: 1px solid #000000",
			count: 2,
		},
		{
			name: "supported colours untouched",
			in:   "color: rgb(10, 20, 30); background-color: #fafafa",
			want: "color: rgb(10, 20, 30); background-color: #fafafa",
		},
		{
			name: "identifier suffix is not a function",
			in:   "font-family: xlab(1)",
			want: "font-family: xlab(1)",
		},
		{
			name:  "unbalanced",
			in:    "color: oklch(0.5 0.2",
			want:  "color: #000000",
			count: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, count := replaceColorFuncs(tt.in, "#000000")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestNeutralizeColors_StylesAndLegacyAttributes(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div id="r" style="color: oklch(0.4 0.1 30)">` +
		`<table bgcolor="lch(52 40 30)"><tr><td><font color="oklab(0.5 0.1 0.1)">x</font></td></tr></table></div>`))
	require.NoError(t, err)
	root := findByID(doc, "r")
	require.NotNil(t, root)

	assert.Equal(t, 3, neutralizeColors(root, "#123456"))

	var values []string
	walkElements(root, func(n *html.Node) {
		for _, key := range []string{"style", "bgcolor", "color"} {
			if v, ok := attr(n, key); ok {
				values = append(values, v)
			}
		}
	})
	assert.Equal(t, []string{"color: #123456", "#123456", "#123456"}, values)
}

func TestCloneTree_IsDetached(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<section id="r" style="color: oklch(1 0 0)"><p>hi</p></section>`))
	require.NoError(t, err)
	src := findByID(doc, "r")

	clone := cloneTree(src)
	assert.Nil(t, clone.Parent)
	assert.Nil(t, clone.NextSibling)

	neutralizeColors(clone, "#000000")
	setAttr(clone.FirstChild, "class", "changed")

	v, _ := attr(src, "style")
	assert.Equal(t, "color: oklch(1 0 0)", v)
	_, ok := attr(src.FirstChild, "class")
	assert.False(t, ok)
}
