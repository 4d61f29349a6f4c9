// Package plot renders 2D point clouds to PNG, for eyeballing what a flow
// has learned against the data it was trained on.
package plot

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

var regular *truetype.Font

const (
	dpi        = 144.0
	fontsize   = 9.0
	lineheight = 1.2
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// Scatter renders [n, 2] point sets into a fixed-size image with a caption
// line at the bottom.
type Scatter struct {
	W, H int
	font.Drawer

	pad  int
	face font.Face

	initialized bool
}

// NewScatter returns a renderer for w×h images.
func NewScatter(w, h int) *Scatter {
	return &Scatter{
		W:   w,
		H:   h,
		pad: 10,
		Drawer: font.Drawer{
			Src: image.Black,
		},
	}
}

// Render draws pts, which must be a [n, 2] float32 tensor, with one colored
// 3×3 dot per point. The viewport is fitted to the data with a small margin.
func (p *Scatter) Render(pts *tensor.Dense, caption string) (*image.RGBA, error) {
	if !p.initialized {
		// lazy init of the font face
		p.face = truetype.NewFace(regular, &truetype.Options{
			Size:    fontsize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		p.Drawer.Face = p.face
		p.initialized = true
	}

	mat, err := native.MatrixF32(pts)
	if err != nil {
		return nil, errors.Wrap(err, "scatter wants a [n, 2] matrix")
	}
	if pts.Shape()[1] != 2 {
		return nil, errors.Errorf("scatter wants a [n, 2] matrix, got %v", pts.Shape())
	}

	minX, maxX := math32.Inf(1), math32.Inf(-1)
	minY, maxY := math32.Inf(1), math32.Inf(-1)
	for _, row := range mat {
		if row[0] < minX {
			minX = row[0]
		}
		if row[0] > maxX {
			maxX = row[0]
		}
		if row[1] < minY {
			minY = row[1]
		}
		if row[1] > maxY {
			maxY = row[1]
		}
	}
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	plotW := p.W - 2*p.pad
	plotH := p.H - 2*p.pad - dy

	im := image.NewRGBA(image.Rect(0, 0, p.W, p.H))
	draw.Draw(im, im.Bounds(), image.White, image.ZP, draw.Src)

	dot := color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	for _, row := range mat {
		cx := p.pad + int(float32(plotW)*(row[0]-minX)/spanX)
		cy := p.pad + plotH - int(float32(plotH)*(row[1]-minY)/spanY)
		for ix := cx - 1; ix <= cx+1; ix++ {
			for iy := cy - 1; iy <= cy+1; iy++ {
				if ix >= 0 && ix < p.W && iy >= 0 && iy < p.H {
					im.SetRGBA(ix, iy, dot)
				}
			}
		}
	}

	if caption != "" {
		p.Dst = im
		p.Dot = fixed.P(p.pad, p.H-p.pad)
		p.DrawString(caption)
	}
	return im, nil
}

// EncodePNG renders pts and writes the PNG into w.
func (p *Scatter) EncodePNG(w io.Writer, pts *tensor.Dense, caption string) error {
	im, err := p.Render(pts, caption)
	if err != nil {
		return err
	}
	return errors.WithStack(png.Encode(w, im))
}
