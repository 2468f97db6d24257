package report

import (
	"bytes"
	"testing"

	diffimage "img-compare/internal/diff/image"

	"github.com/google/go-cmp/cmp"
)

func TestWriteText(t *testing.T) {
	t.Run("WithDifference", func(t *testing.T) {
		result := &diffimage.DiffResult{
			DifferentPixels: 1,
			Largest: diffimage.DiffRecord{
				X:                  1,
				Y:                  0,
				Magnitude:          190,
				LargestChannelDiff: 190,
				PixelA:             diffimage.Pixel{R: 10, G: 20, B: 30, A: 255},
				PixelB:             diffimage.Pixel{R: 200, G: 20, B: 30, A: 255},
			},
		}

		var buffer bytes.Buffer
		if err := WriteText(&buffer, New("out.tga", result)); err != nil {
			t.Fatalf("WriteText: %v", err)
		}

		want := "Diff image saved to: out.tga\n" +
			"Number of different pixels: 1. Max channel diff: 190\n" +
			"Largest difference at position (1, 0):\n" +
			"Image A pixel: R=10 G=20 B=30 A=255\n" +
			"Image B pixel: R=200 G=20 B=30 A=255\n"
		if diff := cmp.Diff(want, buffer.String()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("NoDifferenceAndNoImage", func(t *testing.T) {
		var buffer bytes.Buffer
		if err := WriteText(&buffer, New("", &diffimage.DiffResult{})); err != nil {
			t.Fatalf("WriteText: %v", err)
		}

		want := "Number of different pixels: 0. Max channel diff: 0\n"
		if diff := cmp.Diff(want, buffer.String()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Regions", func(t *testing.T) {
		result := &diffimage.DiffResult{
			Regions: []diffimage.Rectangle{{X: 1, Y: 2, Width: 3, Height: 4}},
		}

		var buffer bytes.Buffer
		if err := WriteText(&buffer, New("", result)); err != nil {
			t.Fatalf("WriteText: %v", err)
		}

		want := "Number of different pixels: 0. Max channel diff: 0\n" +
			"Region: (1, 2) 3x4\n"
		if diff := cmp.Diff(want, buffer.String()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	result := &diffimage.DiffResult{
		DifferentPixels: 2,
		Largest: diffimage.DiffRecord{
			X:                  3,
			Y:                  4,
			Magnitude:          5,
			LargestChannelDiff: 4,
			PixelA:             diffimage.Pixel{R: 1, G: 2, B: 3, A: 4},
			PixelB:             diffimage.Pixel{R: 4, G: 6, B: 3, A: 4},
		},
	}

	var buffer bytes.Buffer
	if err := Write(&buffer, "json", New("diff.png", result)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := `{"diffPath":"diff.png","differentPixels":2,"maxChannelDiff":4,"largest":{"x":3,"y":4,"magnitude":5,"pixelA":{"r":1,"g":2,"b":3,"a":4},"pixelB":{"r":4,"g":6,"b":3,"a":4}}}` + "\n"
	if diff := cmp.Diff(want, buffer.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "xml", &Output{}); err == nil {
		t.Errorf("Expected an error for an unknown format")
	}
}
