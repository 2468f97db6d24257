package image

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/xerrors"
)

// DefaultMaxPixels bounds the size of any buffer created by NewBuffer.
const DefaultMaxPixels int64 = 1 << 28

// Buffer is a straight-alpha RGBA raster stored row-major with four interleaved bytes per pixel.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewBuffer(width int, height int) (*Buffer, error) {
	return newBuffer(width, height, DefaultMaxPixels)
}

// CheckSize reports ErrAllocationFailure when a width x height RGBA raster exceeds maxPixels or
// cannot be addressed. Decoders call it with header dimensions before allocating.
func CheckSize(width int, height int, maxPixels int64) error {
	_, err := bufferSize(width, height, maxPixels)
	return err
}

func bufferSize(width int, height int, maxPixels int64) (int64, error) {
	if width < 0 || height < 0 {
		return 0, xerrors.Errorf("negative dimensions %dx%d: %w", width, height, ErrAllocationFailure)
	}
	pixels, err := checkedMulInt64(int64(width), int64(height))
	if err != nil || pixels > maxPixels {
		return 0, xerrors.Errorf("%dx%d exceeds %d pixels: %w", width, height, maxPixels, ErrAllocationFailure)
	}
	size, err := checkedMulInt64(pixels, 4)
	if err != nil || size > int64(math.MaxInt) {
		return 0, xerrors.Errorf("%dx%d does not fit in memory: %w", width, height, ErrAllocationFailure)
	}
	return size, nil
}

func newBuffer(width int, height int, maxPixels int64) (*Buffer, error) {
	size, err := bufferSize(width, height, maxPixels)
	if err != nil {
		return nil, err
	}

	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, size),
	}, nil
}

func (b *Buffer) PixOffset(x int, y int) int {
	return (y*b.Width + x) * 4
}

func (b *Buffer) PixelAt(x int, y int) Pixel {
	i := b.PixOffset(x, y)
	s := b.Pix[i : i+4 : i+4]
	return Pixel{R: s[0], G: s[1], B: s[2], A: s[3]}
}

func (b *Buffer) SetPixel(x int, y int, p Pixel) {
	i := b.PixOffset(x, y)
	s := b.Pix[i : i+4 : i+4]
	s[0] = p.R
	s[1] = p.G
	s[2] = p.B
	s[3] = p.A
}

// NRGBA returns an image view sharing the buffer's pixels.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage converts a decoded image to a Buffer of at most maxPixels, expanding gray and opaque
// sources to RGBA. The buffer origin is the image's Bounds().Min.
func FromImage(img image.Image, maxPixels int64) (*Buffer, error) {
	bounds := img.Bounds()
	buf, err := newBuffer(bounds.Dx(), bounds.Dy(), maxPixels)
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.NRGBA:
		rowBytes := buf.Width * 4
		for y := 0; y < buf.Height; y++ {
			srcStart := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.Pix[y*rowBytes:(y+1)*rowBytes], src.Pix[srcStart:srcStart+rowBytes])
		}
	case *image.Gray:
		for y := 0; y < buf.Height; y++ {
			srcStart := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < buf.Width; x++ {
				v := src.Pix[srcStart+x]
				buf.SetPixel(x, y, Pixel{R: v, G: v, B: v, A: 255})
			}
		}
	case *image.YCbCr:
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				yi := src.YOffset(bounds.Min.X+x, bounds.Min.Y+y)
				ci := src.COffset(bounds.Min.X+x, bounds.Min.Y+y)
				r, g, b := ycbcrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				buf.SetPixel(x, y, Pixel{R: r, G: g, B: b, A: 255})
			}
		}
	default:
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				buf.SetPixel(x, y, Pixel{R: c.R, G: c.G, B: c.B, A: c.A})
			}
		}
	}

	return buf, nil
}

func ycbcrToRGB(y uint8, cb uint8, cr uint8) (uint8, uint8, uint8) {
	// ITU-R BT.601 full range as used by JFIF, in 16.16 fixed point.
	// R = Y + 1.402 (Cr-128)
	// G = Y - 0.344136 (Cb-128) - 0.714136 (Cr-128)
	// B = Y + 1.772 (Cb-128)
	const (
		crToR = 91881
		cbToG = 22554
		crToG = 46802
		cbToB = 116130
	)

	yy := int32(y) * 0x10101
	cb1 := int32(cb) - 128
	cr1 := int32(cr) - 128

	r := (yy + crToR*cr1) >> 16
	g := (yy - cbToG*cb1 - crToG*cr1) >> 16
	b := (yy + cbToB*cb1) >> 16

	return clampUint8(r), clampUint8(g), clampUint8(b)
}

func clampUint8(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func checkedMulInt64(l int64, r int64) (int64, error) {
	if l == 0 || r == 0 {
		return 0, nil
	}
	if l > math.MaxInt64/r {
		return 0, ErrAllocationFailure
	}
	return l * r, nil
}
