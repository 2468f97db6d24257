package image

import (
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/xerrors"
)

const DefaultWashOutRatio = 0.5

var diffColor = Pixel{R: 255, G: 0, B: 0, A: 255}

// PixelDiff marks every pixel whose RGB channels differ in solid red and washes the
// remaining pixels out toward white.
type PixelDiff struct {
	washOutRatio  float64
	maxPixels     int64
	regions       bool
	mergeDistance int
}

func NewPixelDiff(washOutRatio float64) (*PixelDiff, error) {
	if math.IsNaN(washOutRatio) || washOutRatio < 0 || washOutRatio > 1 {
		return nil, xerrors.Errorf("wash out ratio must be within [0, 1]: %v", washOutRatio)
	}
	return &PixelDiff{
		washOutRatio: washOutRatio,
		maxPixels:    DefaultMaxPixels,
	}, nil
}

// WithMaxPixels limits the size of the output buffer Calculate may allocate.
func (p *PixelDiff) WithMaxPixels(maxPixels int64) *PixelDiff {
	p.maxPixels = maxPixels
	return p
}

// WithRegions enables grouping of differing pixels into bounding rectangles. Rectangles closer
// than mergeDistance pixels are combined.
func (p *PixelDiff) WithRegions(mergeDistance int) *PixelDiff {
	p.regions = true
	p.mergeDistance = mergeDistance
	return p
}

func (p *PixelDiff) Calculate(baseline *Buffer, target *Buffer) (*DiffResult, error) {
	if baseline.Width != target.Width || baseline.Height != target.Height {
		return nil, &DimensionMismatchError{
			BaselineWidth:  baseline.Width,
			BaselineHeight: baseline.Height,
			TargetWidth:    target.Width,
			TargetHeight:   target.Height,
		}
	}

	diff, err := newBuffer(baseline.Width, baseline.Height, p.maxPixels)
	if err != nil {
		return nil, err
	}

	var mask *diffMask
	if p.regions {
		mask = newDiffMask(baseline.Width, baseline.Height)
	}

	differentPixels := 0
	var largest DiffRecord

	for y := 0; y < baseline.Height; y++ {
		for x := 0; x < baseline.Width; x++ {
			pa := baseline.PixelAt(x, y)
			pb := target.PixelAt(x, y)

			d := pixelDistance(pa, pb)
			if d > 0 {
				differentPixels++
				diff.SetPixel(x, y, diffColor)
				if mask != nil {
					mask.set(x, y)
				}

				if d > largest.Magnitude {
					largest = DiffRecord{
						X:                  x,
						Y:                  y,
						Magnitude:          d,
						LargestChannelDiff: maxChannelDiff(pa, pb),
						PixelA:             pa,
						PixelB:             pb,
					}
				}
			} else {
				diff.SetPixel(x, y, washOut(pa, p.washOutRatio))
			}
		}
	}

	result := &DiffResult{
		Image:           diff,
		DifferentPixels: differentPixels,
		Largest:         largest,
	}
	if mask != nil && differentPixels > 0 {
		result.Regions = mask.regions(p.mergeDistance)
	}

	return result, nil
}

// pixelDistance is the Euclidean distance over R, G and B. Alpha does not contribute.
func pixelDistance(a Pixel, b Pixel) float64 {
	dr := float64(absDiff(a.R, b.R))
	dg := float64(absDiff(a.G, b.G))
	db := float64(absDiff(a.B, b.B))
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// maxChannelDiff includes alpha even though pixelDistance ignores it.
func maxChannelDiff(a Pixel, b Pixel) int {
	return max(absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B), absDiff(a.A, b.A))
}

func washOut(p Pixel, ratio float64) Pixel {
	return Pixel{
		R: p.R + uint8(float64(255-p.R)*ratio),
		G: p.G + uint8(float64(255-p.G)*ratio),
		B: p.B + uint8(float64(255-p.B)*ratio),
		A: p.A,
	}
}

func absDiff[T constraints.Integer](l T, r T) int {
	d := int(l) - int(r)
	if d < 0 {
		return -d
	}
	return d
}
