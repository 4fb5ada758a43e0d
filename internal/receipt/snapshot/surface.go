package snapshot

import (
	"sync"
	"sync/atomic"

	"github.com/fogleman/gg"
)

// surfacePool recycles device-size canvases. attached counts surfaces
// currently handed out.
type surfacePool struct {
	width, height int
	pool          sync.Pool
	attached      atomic.Int32
}

func newSurfacePool(width, height int) *surfacePool {
	p := &surfacePool{width: width, height: height}
	p.pool.New = func() interface{} {
		return gg.NewContext(width, height)
	}
	return p
}

// acquire returns a cleared opaque white surface.
func (p *surfacePool) acquire() *gg.Context {
	dc := p.pool.Get().(*gg.Context)
	dc.Identity()
	dc.ResetClip()
	dc.SetColor(white)
	dc.Clear()
	p.attached.Add(1)
	return dc
}

func (p *surfacePool) release(dc *gg.Context) {
	p.attached.Add(-1)
	p.pool.Put(dc)
}
