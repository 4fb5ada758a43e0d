package snapshot

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var gridColor = color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}

// layout flows a subtree into a display list. Backgrounds are reserved
// before their content and filled once the box height is known.
type layout struct {
	fonts *fontSet
	ops   []op
}

func (l *layout) reserve() int {
	l.ops = append(l.ops, nil)
	return len(l.ops) - 1
}

// block lays out n at (x, y) within width w and returns the vertical space
// it consumed, margins included.
func (l *layout) block(n *html.Node, parent style, x, y, w float64) (float64, error) {
	st, err := computeStyle(n, parent)
	if err != nil {
		return 0, err
	}
	if n.DataAtom == atom.Table {
		return l.table(n, st, x, y, w)
	}

	top := y
	y += st.margin.top
	if st.width > 0 && st.width < w {
		w = st.width
	}
	bg := l.reserve()
	in := st.insets()
	h, err := l.flow(n, st, x+in.left, y+in.top, w-in.left-in.right)
	if err != nil {
		return 0, err
	}
	h += in.top + in.bottom
	if st.height > h {
		h = st.height
	}
	l.ops[bg] = fillOp{x: x, y: y, w: w, h: h, color: st.background}
	l.ops = append(l.ops, borderOps(x, y, w, h, st.borders)...)
	return y + h + st.margin.bottom - top, nil
}

// flow lays out the children of n. Runs of inline content become line
// boxes; everything else is a block.
func (l *layout) flow(n *html.Node, st style, x, y, w float64) (float64, error) {
	start := y
	var run []*html.Node
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		h, err := l.inline(run, st, x, y, w)
		run = nil
		y += h
		return err
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case isInline(c):
			run = append(run, c)
		case c.Type != html.ElementNode || isSkipped(c):
		default:
			if err := flush(); err != nil {
				return 0, err
			}
			h, err := l.block(c, st, x, y, w)
			if err != nil {
				return 0, err
			}
			y += h
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return y - start, nil
}

type segment struct {
	text  string
	style style
	brk   bool
}

func collectSegments(nodes []*html.Node, parent style, out []segment) ([]segment, error) {
	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode:
			out = append(out, segment{text: n.Data, style: parent})
		case n.Type != html.ElementNode || isSkipped(n):
		case n.DataAtom == atom.Br:
			out = append(out, segment{brk: true, style: parent})
		default:
			st, err := computeStyle(n, parent)
			if err != nil {
				return nil, err
			}
			var children []*html.Node
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				children = append(children, c)
			}
			if out, err = collectSegments(children, st, out); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

type word struct {
	text  string
	style style
	width float64
	space bool
	brk   bool
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// words splits segments on collapsible whitespace. A word remembers
// whether whitespace preceded it.
func (l *layout) words(segs []segment) []word {
	var out []word
	pending := false
	for _, seg := range segs {
		if seg.brk {
			out = append(out, word{brk: true, style: seg.style})
			pending = false
			continue
		}
		text := seg.text
		for i := 0; i < len(text); {
			if isSpace(text[i]) {
				pending = true
				i++
				continue
			}
			j := i
			for j < len(text) && !isSpace(text[j]) {
				j++
			}
			lead := pending && len(out) > 0 && !out[len(out)-1].brk
			out = append(out, word{
				text:  text[i:j],
				style: seg.style,
				width: l.fonts.measure(text[i:j], seg.style.fontSize, seg.style.bold),
				space: lead,
			})
			pending = false
			i = j
		}
	}
	return out
}

type placed struct {
	word
	x float64
}

// inline word-wraps nodes into lines of width w and returns their height.
func (l *layout) inline(nodes []*html.Node, st style, x, y, w float64) (float64, error) {
	segs, err := collectSegments(nodes, st, nil)
	if err != nil {
		return 0, err
	}
	words := l.words(segs)
	if len(words) == 0 {
		return 0, nil
	}

	start := y
	var line []placed
	lineW := 0.0
	emit := func() {
		y += l.line(line, lineW, st, x, y, w)
		line, lineW = nil, 0
	}
	for _, wd := range words {
		if wd.brk {
			emit()
			continue
		}
		gap := 0.0
		if wd.space && len(line) > 0 {
			gap = l.fonts.measure(" ", wd.style.fontSize, wd.style.bold)
		}
		if len(line) > 0 && lineW+gap+wd.width > w {
			emit()
			gap = 0
		}
		line = append(line, placed{word: wd, x: lineW + gap})
		lineW += gap + wd.width
	}
	if len(line) > 0 {
		emit()
	}
	return y - start, nil
}

// line emits one line box and returns its height.
func (l *layout) line(words []placed, lineW float64, st style, x, y, w float64) float64 {
	lh := st.lineHeight()
	size, bold := st.fontSize, st.bold
	for _, p := range words {
		if p.style.lineHeight() > lh {
			lh = p.style.lineHeight()
		}
		if p.style.fontSize > size {
			size, bold = p.style.fontSize, p.style.bold
		}
	}
	if len(words) == 0 {
		return lh
	}

	offset := 0.0
	switch st.align {
	case "right", "end":
		offset = w - lineW
	case "center":
		offset = (w - lineW) / 2
	}
	if offset < 0 {
		offset = 0
	}
	baseline := y + (lh-size)/2 + l.fonts.ascent(size, bold)
	for _, p := range words {
		l.ops = append(l.ops, textOp{
			x:        x + offset + p.x,
			baseline: baseline,
			text:     p.text,
			size:     p.style.fontSize,
			bold:     p.style.bold,
			color:    p.style.color,
		})
	}
	return lh
}

type cellBox struct {
	bg    int
	x, w  float64
	style style
}

// table lays out rows with equal column widths. colspan widens a cell
// across columns.
func (l *layout) table(n *html.Node, st style, x, y, w float64) (float64, error) {
	top := y
	y += st.margin.top
	if st.width > 0 && st.width < w {
		w = st.width
	}

	rows := tableRows(n)
	cols := 0
	for _, tr := range rows {
		span := 0
		for _, td := range rowCells(tr) {
			span += colspan(td)
		}
		if span > cols {
			cols = span
		}
	}
	if cols == 0 {
		return st.margin.top + st.margin.bottom, nil
	}

	grid, gridC := tableGrid(n, st)
	bg := l.reserve()
	in := st.insets()
	ix, iw := x+in.left, w-in.left-in.right
	colW := iw / float64(cols)
	cy := y + in.top

	for _, tr := range rows {
		rowSt, err := computeStyle(tr, st)
		if err != nil {
			return 0, err
		}
		rowBg := l.reserve()
		var cells []cellBox
		rowH := 0.0
		cx, used := ix, 0
		for _, td := range rowCells(tr) {
			span := colspan(td)
			if used+span > cols {
				span = cols - used
			}
			if span <= 0 {
				break
			}
			used += span
			cw := colW * float64(span)

			cst, err := computeStyle(td, rowSt)
			if err != nil {
				return 0, err
			}
			cellBg := l.reserve()
			cin := cst.insets()
			h, err := l.flow(td, cst, cx+cin.left, cy+cin.top, cw-cin.left-cin.right)
			if err != nil {
				return 0, err
			}
			h += cin.top + cin.bottom
			if cst.height > h {
				h = cst.height
			}
			if h > rowH {
				rowH = h
			}
			cells = append(cells, cellBox{bg: cellBg, x: cx, w: cw, style: cst})
			cx += cw
		}
		if len(cells) == 0 {
			continue
		}

		l.ops[rowBg] = fillOp{x: ix, y: cy, w: iw, h: rowH, color: rowSt.background}
		for _, c := range cells {
			l.ops[c.bg] = fillOp{x: c.x, y: cy, w: c.w, h: rowH, color: c.style.background}
			l.ops = append(l.ops, borderOps(c.x, cy, c.w, rowH, c.style.borders)...)
			if grid {
				l.ops = append(l.ops, outline(c.x, cy, c.w, rowH, gridC)...)
			}
		}
		cy += rowH
	}

	h := cy - y + in.bottom
	l.ops[bg] = fillOp{x: x, y: y, w: w, h: h, color: st.background}
	l.ops = append(l.ops, borderOps(x, y, w, h, st.borders)...)
	return y + h + st.margin.bottom - top, nil
}

// tableGrid reports whether cells get ruled, from the border attribute or
// a table border.
func tableGrid(n *html.Node, st style) (bool, color.NRGBA) {
	if v, ok := attr(n, "border"); ok && strings.TrimSpace(v) != "0" {
		return true, gridColor
	}
	if st.borders[0].width > 0 {
		return true, st.borders[0].color
	}
	return false, color.NRGBA{}
}

func outline(x, y, w, h float64, c color.NRGBA) []op {
	return []op{
		lineOp{x1: x, y1: y, x2: x + w, y2: y, width: 1, color: c},
		lineOp{x1: x, y1: y + h, x2: x + w, y2: y + h, width: 1, color: c},
		lineOp{x1: x, y1: y, x2: x, y2: y + h, width: 1, color: c},
		lineOp{x1: x + w, y1: y, x2: x + w, y2: y + h, width: 1, color: c},
	}
}

func tableRows(n *html.Node) []*html.Node {
	var rows []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.DataAtom {
		case atom.Tr:
			rows = append(rows, c)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			rows = append(rows, tableRows(c)...)
		}
	}
	return rows
}

func rowCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
			cells = append(cells, c)
		}
	}
	return cells
}

func colspan(td *html.Node) int {
	v, ok := attr(td, "colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
