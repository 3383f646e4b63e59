package mask

import (
	"image"
	"image/color"

	"github.com/llgcode/draw2d/draw2dimg"
)

// Point is an integer pixel vertex.
type Point struct {
	X, Y int
}

var (
	paintOn  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	paintOff = color.RGBA{A: 0xff}
)

// Canvas paints polygon rings into an anti-aliased image and thresholds
// the result into a Bitmap.
//
// Vertices are pixel centres. Each ring is filled and stroked with a one
// pixel pen, so the pixels on its boundary are painted too. A pixel is set
// when its painted coverage is at least one half.
type Canvas struct {
	img *image.RGBA
	gc  *draw2dimg.GraphicContext
}

// NewCanvas returns a cleared w x h canvas.
func NewCanvas(w, h int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetLineWidth(1)
	return &Canvas{img: img, gc: gc}
}

// Fill paints the closed ring pts. Later rings paint over earlier ones, so
// a hole filled with on=false clears what its outer ring set.
func (c *Canvas) Fill(pts []Point, on bool) {
	if len(pts) == 0 {
		return
	}
	col := paintOff
	if on {
		col = paintOn
	}
	c.gc.SetFillColor(col)
	c.gc.SetStrokeColor(col)

	c.gc.BeginPath()
	c.gc.MoveTo(float64(pts[0].X)+0.5, float64(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		c.gc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
	}
	c.gc.Close()
	c.gc.FillStroke()
}

// Bitmap thresholds the painted image.
func (c *Canvas) Bitmap() *Bitmap {
	b := c.img.Bounds()
	out := NewBitmap(b.Dx(), b.Dy())
	for y := 0; y < out.H; y++ {
		row := c.img.Pix[y*c.img.Stride:]
		for x := 0; x < out.W; x++ {
			if row[4*x] >= 0x80 {
				out.Set(x, y, 1)
			}
		}
	}
	return out
}
