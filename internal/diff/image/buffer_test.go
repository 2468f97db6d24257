package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBuffer(t *testing.T) {
	t.Run("Layout", func(t *testing.T) {
		buf, err := NewBuffer(3, 2)
		if err != nil {
			t.Fatalf("NewBuffer: %v", err)
		}
		if len(buf.Pix) != 3*2*4 {
			t.Errorf("Expected %d bytes, got %d", 3*2*4, len(buf.Pix))
		}

		buf.SetPixel(1, 1, Pixel{1, 2, 3, 4})
		if diff := cmp.Diff([]uint8{1, 2, 3, 4}, buf.Pix[16:20]); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if got := buf.PixelAt(1, 1); got != (Pixel{1, 2, 3, 4}) {
			t.Errorf("PixelAt(1, 1) = %v", got)
		}
	})

	t.Run("Negative", func(t *testing.T) {
		if _, err := NewBuffer(-1, 2); !errors.Is(err, ErrAllocationFailure) {
			t.Errorf("Expected ErrAllocationFailure, got %v", err)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		if _, err := NewBuffer(1<<30, 1<<30); !errors.Is(err, ErrAllocationFailure) {
			t.Errorf("Expected ErrAllocationFailure, got %v", err)
		}
	})
}

func TestFromImage(t *testing.T) {
	t.Run("NRGBA", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		src.SetNRGBA(2, 3, color.NRGBA{R: 9, G: 8, B: 7, A: 6})
		sub := src.SubImage(image.Rect(1, 2, 4, 4)).(*image.NRGBA)

		buf, err := FromImage(sub, DefaultMaxPixels)
		if err != nil {
			t.Fatalf("FromImage: %v", err)
		}

		if buf.Width != 3 || buf.Height != 2 {
			t.Fatalf("Expected 3x2, got %dx%d", buf.Width, buf.Height)
		}
		if got := buf.PixelAt(1, 1); got != (Pixel{9, 8, 7, 6}) {
			t.Errorf("PixelAt(1, 1) = %v", got)
		}
	})

	t.Run("GrayExpandsToOpaqueRGBA", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 2, 1))
		src.SetGray(1, 0, color.Gray{Y: 77})

		buf, err := FromImage(src, DefaultMaxPixels)
		if err != nil {
			t.Fatalf("FromImage: %v", err)
		}

		if diff := cmp.Diff([]uint8{0, 0, 0, 255, 77, 77, 77, 255}, buf.Pix); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("YCbCr", func(t *testing.T) {
		src := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420)
		for i := range src.Y {
			src.Y[i] = 100
		}
		for i := range src.Cb {
			src.Cb[i] = 128
			src.Cr[i] = 128
		}

		buf, err := FromImage(src, DefaultMaxPixels)
		if err != nil {
			t.Fatalf("FromImage: %v", err)
		}

		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				if got := buf.PixelAt(x, y); got != (Pixel{100, 100, 100, 255}) {
					t.Errorf("PixelAt(%d, %d) = %v", x, y, got)
				}
			}
		}
	})

	t.Run("RGBA", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 2, 2))
		draw.Draw(src, src.Bounds(), &image.Uniform{C: color.RGBA{R: 10, G: 20, B: 30, A: 255}}, image.Point{}, draw.Src)

		buf, err := FromImage(src, DefaultMaxPixels)
		if err != nil {
			t.Fatalf("FromImage: %v", err)
		}

		if got := buf.PixelAt(1, 1); got != (Pixel{10, 20, 30, 255}) {
			t.Errorf("PixelAt(1, 1) = %v", got)
		}
	})
}

func TestFromImage_MaxPixels(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))

	if _, err := FromImage(src, 15); !errors.Is(err, ErrAllocationFailure) {
		t.Errorf("Expected ErrAllocationFailure, got %v", err)
	}
	if _, err := FromImage(src, 16); err != nil {
		t.Errorf("Expected 16 pixels to fit, got %v", err)
	}
}

func TestCheckSize(t *testing.T) {
	for _, tt := range []struct {
		width, height int
		maxPixels     int64
		wantErr       bool
	}{
		{4, 4, 16, false},
		{4, 4, 15, true},
		{-1, 4, 16, true},
		{1 << 30, 1 << 30, DefaultMaxPixels, true},
	} {
		err := CheckSize(tt.width, tt.height, tt.maxPixels)
		if got := errors.Is(err, ErrAllocationFailure); got != tt.wantErr {
			t.Errorf("CheckSize(%d, %d, %d) = %v", tt.width, tt.height, tt.maxPixels, err)
		}
	}
}

func TestBuffer_NRGBA(t *testing.T) {
	buf, err := NewBuffer(2, 2)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	buf.SetPixel(1, 0, Pixel{1, 2, 3, 4})

	img := buf.NRGBA()
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("NRGBAAt(1, 0) = %v", got)
	}

	img.SetNRGBA(0, 1, color.NRGBA{R: 5, G: 6, B: 7, A: 8})
	if got := buf.PixelAt(0, 1); got != (Pixel{5, 6, 7, 8}) {
		t.Errorf("Expected the view to share pixels, got %v", got)
	}
}
