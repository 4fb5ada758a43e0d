package snapshot

import (
	"image/color"

	"github.com/fogleman/gg"
)

// op is one entry of the display list, in CSS pixels.
type op interface {
	paint(dc *gg.Context, fonts *fontSet, scale float64)
}

type fillOp struct {
	x, y, w, h float64
	color      color.NRGBA
}

func (o fillOp) paint(dc *gg.Context, _ *fontSet, scale float64) {
	if o.color.A == 0 || o.w <= 0 || o.h <= 0 {
		return
	}
	dc.SetColor(o.color)
	dc.DrawRectangle(o.x*scale, o.y*scale, o.w*scale, o.h*scale)
	dc.Fill()
}

type lineOp struct {
	x1, y1, x2, y2 float64
	width          float64
	color          color.NRGBA
}

func (o lineOp) paint(dc *gg.Context, _ *fontSet, scale float64) {
	if o.color.A == 0 || o.width <= 0 {
		return
	}
	dc.SetColor(o.color)
	dc.SetLineWidth(o.width * scale)
	dc.DrawLine(o.x1*scale, o.y1*scale, o.x2*scale, o.y2*scale)
	dc.Stroke()
}

type textOp struct {
	x, baseline float64
	text        string
	size        float64
	bold        bool
	color       color.NRGBA
}

func (o textOp) paint(dc *gg.Context, fonts *fontSet, scale float64) {
	if o.color.A == 0 || o.text == "" {
		return
	}
	dc.SetFontFace(fonts.face(o.size, o.bold))
	dc.SetColor(o.color)
	dc.DrawString(o.text, o.x*scale, o.baseline*scale)
}

// paintList draws ops in order onto dc.
func paintList(dc *gg.Context, fonts *fontSet, scale float64, ops []op) {
	for _, o := range ops {
		if o == nil {
			continue
		}
		o.paint(dc, fonts, scale)
	}
}

// borderOps paints the four sides of a box inside its bounds.
func borderOps(x, y, w, h float64, b [4]border) []op {
	var ops []op
	if b[0].width > 0 {
		ops = append(ops, fillOp{x: x, y: y, w: w, h: b[0].width, color: b[0].color})
	}
	if b[2].width > 0 {
		ops = append(ops, fillOp{x: x, y: y + h - b[2].width, w: w, h: b[2].width, color: b[2].color})
	}
	if b[3].width > 0 {
		ops = append(ops, fillOp{x: x, y: y, w: b[3].width, h: h, color: b[3].color})
	}
	if b[1].width > 0 {
		ops = append(ops, fillOp{x: x + w - b[1].width, y: y, w: b[1].width, h: h, color: b[1].color})
	}
	return ops
}
