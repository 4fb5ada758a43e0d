// Package assemble places receipt bitmaps onto A4 pages of one PDF.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

// A4 in millimetres.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

var (
	ErrEmptyDocument = errors.New("document has no pages")
	ErrEmptyImage    = errors.New("image has no pixels")
	ErrFinished      = errors.New("document already finished")
)

// Rect is a placement on the page in millimetres.
type Rect struct {
	X, Y, W, H float64
}

// Fit scales a bw×bh bitmap uniformly into a pw×ph page and centres it.
// The result never exceeds the page.
func Fit(bw, bh, pw, ph float64) Rect {
	if bw <= 0 || bh <= 0 || pw <= 0 || ph <= 0 {
		return Rect{}
	}
	scale := math.Min(pw/bw, ph/bh)
	w := math.Min(bw*scale, pw)
	h := math.Min(bh*scale, ph)
	return Rect{X: (pw - w) / 2, Y: (ph - h) / 2, W: w, H: h}
}

// Document is a finished PDF.
type Document struct {
	Bytes []byte
	Pages int
}

// Builder appends one page per bitmap. The first failure is sticky and
// abandons the whole document.
type Builder struct {
	pdf      *fpdf.Fpdf
	pages    int
	err      error
	finished bool
}

func NewBuilder(title string, created time.Time) *Builder {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("frontdesk", true)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
		pdf.SetModificationDate(created)
	}
	return &Builder{pdf: pdf}
}

// AddPage encodes img and places it fitted and centred on a new page.
func (b *Builder) AddPage(img image.Image) error {
	if b.finished {
		return ErrFinished
	}
	if b.err != nil {
		return b.err
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		b.err = fmt.Errorf("page %d: %w", b.pages+1, ErrEmptyImage)
		return b.err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		b.err = fmt.Errorf("failed to encode page %d: %w", b.pages+1, err)
		return b.err
	}

	name := fmt.Sprintf("page-%d", b.pages+1)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	b.pdf.RegisterImageOptionsReader(name, opts, &buf)
	rect := Fit(float64(bounds.Dx()), float64(bounds.Dy()), PageWidthMM, PageHeightMM)
	b.pdf.AddPage()
	b.pdf.ImageOptions(name, rect.X, rect.Y, rect.W, rect.H, false, opts, 0, "")
	if err := b.pdf.Error(); err != nil {
		b.err = fmt.Errorf("failed to add page %d: %w", b.pages+1, err)
		return b.err
	}
	b.pages++
	return nil
}

// Pages returns the number of pages added so far.
func (b *Builder) Pages() int {
	return b.pages
}

// Finish returns the PDF only if every page was added.
func (b *Builder) Finish() (*Document, error) {
	if b.finished {
		return nil, ErrFinished
	}
	b.finished = true
	if b.err != nil {
		return nil, b.err
	}
	if b.pages == 0 {
		return nil, ErrEmptyDocument
	}

	var out bytes.Buffer
	if err := b.pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return &Document{Bytes: out.Bytes(), Pages: b.pages}, nil
}

// Assemble builds a document from images in order.
func Assemble(title string, created time.Time, images ...image.Image) (*Document, error) {
	b := NewBuilder(title, created)
	for _, img := range images {
		if err := b.AddPage(img); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
