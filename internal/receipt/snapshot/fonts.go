package snapshot

import (
	"fmt"
	"math"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

type faceKey struct {
	size int // device pixels x 4
	bold bool
}

// fontSet hands out faces at device resolution. Faces are not safe for
// concurrent use; callers hold the converter lock.
type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
	scale   float64
	faces   map[faceKey]font.Face
}

func loadFonts(scale float64) (*fontSet, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &fontSet{
		regular: regular,
		bold:    bold,
		scale:   scale,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// face returns the face for a CSS pixel size.
func (fs *fontSet) face(px float64, bold bool) font.Face {
	key := faceKey{size: int(math.Round(px * fs.scale * 4)), bold: bold}
	if f, ok := fs.faces[key]; ok {
		return f
	}
	ttf := fs.regular
	if bold {
		ttf = fs.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    float64(key.size) / 4,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	fs.faces[key] = f
	return f
}

// measure returns the advance of s in CSS pixels.
func (fs *fontSet) measure(s string, px float64, bold bool) float64 {
	adv := font.MeasureString(fs.face(px, bold), s)
	return float64(adv) / 64 / fs.scale
}

// ascent returns the face ascent in CSS pixels.
func (fs *fontSet) ascent(px float64, bold bool) float64 {
	m := fs.face(px, bold).Metrics()
	return float64(m.Ascent) / 64 / fs.scale
}

func (fs *fontSet) close() {
	for k, f := range fs.faces {
		_ = f.Close()
		delete(fs.faces, k)
	}
}
