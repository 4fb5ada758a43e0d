// Package snapshot rasterizes one region of a rendered receipt document
// into an A4 bitmap.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/net/html"
)

// ErrRegionNotFound is returned when the document has no element with the
// requested id.
var ErrRegionNotFound = errors.New("snapshot region not found")

// A4 at 96 dpi.
const (
	DefaultWidthPx  = 794
	DefaultHeightPx = 1123
	DefaultScale    = 2.0
	DefaultFallback = "#000000"
)

type Options struct {
	WidthPx       int
	HeightPx      int
	Scale         float64
	FallbackColor string
}

// Page is a parsed document. Snapshots never modify it.
type Page struct {
	root *html.Node
}

// Parse reads a rendered HTML document.
func Parse(doc []byte) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Page{root: root}, nil
}

// HasRegion reports whether the page has an element with id.
func (p *Page) HasRegion(id string) bool {
	return findByID(p.root, id) != nil
}

// Converter turns document regions into bitmaps. Only one render surface is
// attached at a time.
type Converter struct {
	opts     Options
	mu       sync.Mutex
	fonts    *fontSet
	surfaces *surfacePool
}

func New(opts Options) (*Converter, error) {
	if opts.WidthPx <= 0 {
		opts.WidthPx = DefaultWidthPx
	}
	if opts.HeightPx <= 0 {
		opts.HeightPx = DefaultHeightPx
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.FallbackColor == "" {
		opts.FallbackColor = DefaultFallback
	}
	if _, err := parseColor(opts.FallbackColor); err != nil {
		return nil, fmt.Errorf("invalid fallback color: %w", err)
	}

	fonts, err := loadFonts(opts.Scale)
	if err != nil {
		return nil, err
	}
	return &Converter{
		opts:  opts,
		fonts: fonts,
		surfaces: newSurfacePool(
			int(float64(opts.WidthPx)*opts.Scale),
			int(float64(opts.HeightPx)*opts.Scale),
		),
	}, nil
}

// Bounds returns the size of every produced bitmap in device pixels.
func (c *Converter) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.surfaces.width, c.surfaces.height)
}

// Snapshot rasterizes the element with id regionID. The region is copied
// first; colour neutralization and the A4 override only touch the copy.
func (c *Converter) Snapshot(ctx context.Context, page *Page, regionID string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	region := findByID(page.root, regionID)
	if region == nil {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, regionID)
	}

	base, err := inheritedStyle(region.Parent, c.opts.FallbackColor)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve styles above %s: %w", regionID, err)
	}
	clone := cloneTree(region)
	neutralizeColors(clone, c.opts.FallbackColor)
	c.forceA4(clone)

	c.mu.Lock()
	defer c.mu.Unlock()

	l := &layout{fonts: c.fonts}
	if _, err := l.block(clone, base, 0, 0, float64(c.opts.WidthPx)); err != nil {
		return nil, fmt.Errorf("failed to lay out %s: %w", regionID, err)
	}

	dc := c.surfaces.acquire()
	defer c.surfaces.release(dc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paintList(dc, c.fonts, c.opts.Scale, l.ops)
	return imaging.Clone(dc.Image()), nil
}

// SnapshotHTML parses doc and rasterizes one region of it.
func (c *Converter) SnapshotHTML(ctx context.Context, doc []byte, regionID string) (image.Image, error) {
	page, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(ctx, page, regionID)
}

// forceA4 pins the root to the page size with an opaque white background.
func (c *Converter) forceA4(root *html.Node) {
	inline, _ := attr(root, "style")
	decls := parseDecls(inline)
	decls = setDecl(decls, "width", strconv.Itoa(c.opts.WidthPx)+"px")
	decls = setDecl(decls, "height", strconv.Itoa(c.opts.HeightPx)+"px")
	decls = setDecl(decls, "margin", "0")
	decls = setDecl(decls, "background-color", "#ffffff")
	decls = removeDecl(decls, "background")
	setAttr(root, "style", formatDecls(decls))
}

// inheritedStyle computes the style n passes to its children, reading
// ancestors through neutralized copies of their colour attributes.
func inheritedStyle(n *html.Node, fallback string) (style, error) {
	var chain []*html.Node
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			chain = append(chain, p)
		}
	}
	st := rootStyle()
	for i := len(chain) - 1; i >= 0; i-- {
		shallow := &html.Node{Type: html.ElementNode, DataAtom: chain[i].DataAtom, Data: chain[i].Data}
		for _, a := range chain[i].Attr {
			switch a.Key {
			case "style", "color", "bgcolor", "align":
				v, _ := replaceColorFuncs(a.Val, fallback)
				shallow.Attr = append(shallow.Attr, html.Attribute{Key: a.Key, Val: v})
			}
		}
		next, err := computeStyle(shallow, st)
		if err != nil {
			return style{}, err
		}
		st = next
	}
	return st, nil
}
