// Package mask implements COCO-compatible binary masks: run-length counts,
// the compressed counts string used by pycocotools, area and bounding-box
// derivation, and a polygon rasteriser.
//
// COCO RLE counts run over the mask in column-major order and always start
// with a (possibly empty) run of zeros.
package mask

import "fmt"

// Bitmap is a binary image stored row-major: Pix[y*W+x].
type Bitmap struct {
	W, H int
	Pix  []byte
}

// NewBitmap allocates a cleared w x h bitmap.
func NewBitmap(w, h int) *Bitmap {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Bitmap{W: w, H: h, Pix: make([]byte, w*h)}
}

// At reports whether pixel (x, y) is set. Out-of-range pixels are unset.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return false
	}
	return b.Pix[y*b.W+x] != 0
}

// Set writes pixel (x, y). Out-of-range writes are ignored.
func (b *Bitmap) Set(x, y int, v byte) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	b.Pix[y*b.W+x] = v
}

// RLE is a COCO run-length encoded mask. Size is [height, width].
type RLE struct {
	Size   [2]int
	Counts []int
}

// Encode converts a bitmap to column-major COCO RLE.
func Encode(b *Bitmap) RLE {
	return RLE{
		Size:   [2]int{b.H, b.W},
		Counts: Counts(Transpose(b.Pix, b.H, b.W)),
	}
}

// Decode expands r back into a row-major bitmap.
func Decode(r RLE) (*Bitmap, error) {
	h, w := r.Size[0], r.Size[1]
	flat, err := Expand(r.Counts, h*w)
	if err != nil {
		return nil, err
	}
	return &Bitmap{W: w, H: h, Pix: Transpose(flat, w, h)}, nil
}

// Counts run-length encodes a flat 0/1 sequence. The first count is the
// number of leading zeros, so it is zero when the sequence starts set.
func Counts(flat []byte) []int {
	var counts []int
	var prev byte
	c := 0
	for _, v := range flat {
		if v != 0 {
			v = 1
		}
		if v != prev {
			counts = append(counts, c)
			c = 0
			prev = v
		}
		c++
	}
	return append(counts, c)
}

// Expand decodes counts into a flat sequence of n values.
func Expand(counts []int, n int) ([]byte, error) {
	out := make([]byte, n)
	offset := 0
	for i, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("negative run length %d at index %d", c, i)
		}
		if offset+c > n {
			return nil, fmt.Errorf("runs overflow mask of %d pixels", n)
		}
		if i%2 == 1 {
			for j := offset; j < offset+c; j++ {
				out[j] = 1
			}
		}
		offset += c
	}
	return out, nil
}

// Transpose turns a row-major rows x cols grid into its column-major layout.
// Applied to a column-major buffer with rows and cols swapped, it reverses
// the operation.
func Transpose(flat []byte, rows, cols int) []byte {
	out := make([]byte, len(flat))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = flat[r*cols+c]
		}
	}
	return out
}

// Area is the number of set pixels.
func (r RLE) Area() int {
	area := 0
	for i := 1; i < len(r.Counts); i += 2 {
		area += r.Counts[i]
	}
	return area
}

// BBox returns [x, y, w, h] of the set pixels, or all zeros for an empty
// mask. It walks the column-major runs without decoding.
func (r RLE) BBox() [4]float64 {
	h, w := r.Size[0], r.Size[1]
	m := len(r.Counts) / 2 * 2
	if m == 0 || h == 0 {
		return [4]float64{}
	}

	xs, ys, xe, ye := w, h, 0, 0
	cc, xp := 0, 0
	for j := 0; j < m; j++ {
		cc += r.Counts[j]
		t := cc - j%2
		y := t % h
		x := (t - y) / h
		if j%2 == 0 {
			xp = x
		} else if xp < x {
			// the run wraps a column, so it spans the full height
			ys = 0
			ye = h - 1
		}
		xs = min(xs, x)
		xe = max(xe, x)
		ys = min(ys, y)
		ye = max(ye, y)
	}
	return [4]float64{float64(xs), float64(ys), float64(xe - xs + 1), float64(ye - ys + 1)}
}

// String returns the compressed counts string.
func (r RLE) String() string { return CountsToString(r.Counts) }
