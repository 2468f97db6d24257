package image

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPixelDiff_Regions(t *testing.T) {
	t.Run("SeparateClusters", func(t *testing.T) {
		pd := newTestPixelDiff(t).WithRegions(0)
		a := createTestBuffer(t, 20, 10, Pixel{255, 255, 255, 255})
		b := createTestBuffer(t, 20, 10, Pixel{255, 255, 255, 255})
		for y := 1; y < 3; y++ {
			for x := 1; x < 4; x++ {
				b.SetPixel(x, y, Pixel{0, 0, 0, 255})
			}
		}
		b.SetPixel(15, 7, Pixel{0, 0, 0, 255})
		b.SetPixel(16, 8, Pixel{0, 0, 0, 255})

		result, err := pd.Calculate(a, b)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}

		want := []Rectangle{
			{X: 1, Y: 1, Width: 3, Height: 2},
			{X: 15, Y: 7, Width: 2, Height: 2},
		}
		if diff := cmp.Diff(want, result.Regions); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if result.DifferentPixels != 8 {
			t.Errorf("Expected DifferentPixels to be 8, got %d", result.DifferentPixels)
		}
	})

	t.Run("NearbyClustersMerge", func(t *testing.T) {
		pd := newTestPixelDiff(t).WithRegions(10)
		a := createTestBuffer(t, 20, 10, Pixel{255, 255, 255, 255})
		b := createTestBuffer(t, 20, 10, Pixel{255, 255, 255, 255})
		b.SetPixel(1, 1, Pixel{0, 0, 0, 255})
		b.SetPixel(5, 4, Pixel{0, 0, 0, 255})

		result, err := pd.Calculate(a, b)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}

		want := []Rectangle{{X: 1, Y: 1, Width: 5, Height: 4}}
		if diff := cmp.Diff(want, result.Regions); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("NoDifference", func(t *testing.T) {
		pd := newTestPixelDiff(t).WithRegions(10)
		img := createTestBuffer(t, 5, 5, Pixel{1, 2, 3, 4})

		result, err := pd.Calculate(img, img)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}

		if len(result.Regions) != 0 {
			t.Errorf("Expected no regions, got %v", result.Regions)
		}
	})
}

func TestRectanglesClose(t *testing.T) {
	r1 := Rectangle{X: 0, Y: 0, Width: 1, Height: 1}
	r2 := Rectangle{X: 2, Y: 0, Width: 1, Height: 1}

	if rectanglesClose(r1, r2, 0) {
		t.Errorf("Expected %v and %v to be apart without a threshold", r1, r2)
	}
	if !rectanglesClose(r1, r2, 1) {
		t.Errorf("Expected %v and %v to be close with threshold 1", r1, r2)
	}
}

func TestMergeRectangles(t *testing.T) {
	t.Run("GrownRectangleReachesEarlierOne", func(t *testing.T) {
		// the first rectangle touches neither of the others, only their union
		rects := []Rectangle{
			{X: 0, Y: 0, Width: 1, Height: 1},
			{X: 3, Y: 0, Width: 1, Height: 10},
			{X: 0, Y: 9, Width: 4, Height: 1},
		}

		got := mergeRectangles(rects, 0)

		want := []Rectangle{{X: 0, Y: 0, Width: 4, Height: 10}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("ResultHasNoOverlaps", func(t *testing.T) {
		rects := []Rectangle{
			{X: 0, Y: 0, Width: 2, Height: 2},
			{X: 10, Y: 0, Width: 2, Height: 2},
			{X: 5, Y: 5, Width: 1, Height: 1},
			{X: 1, Y: 1, Width: 10, Height: 1},
		}

		got := mergeRectangles(rects, 0)
		for i := range got {
			for j := i + 1; j < len(got); j++ {
				if rectanglesOverlap(got[i], got[j]) {
					t.Errorf("Expected %v and %v not to overlap", got[i], got[j])
				}
			}
		}
	})
}
