package image

import (
	"errors"
	"fmt"
)

type Pixel struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// DiffRecord describes the pixel pair with the largest color distance seen by a scan.
// The zero value means no difference has been found.
type DiffRecord struct {
	X                  int
	Y                  int
	Magnitude          float64
	LargestChannelDiff int
	PixelA             Pixel
	PixelB             Pixel
}

type DiffResult struct {
	Image           *Buffer
	DifferentPixels int
	Largest         DiffRecord
	Regions         []Rectangle
}

type Differ interface {
	Calculate(baseline *Buffer, target *Buffer) (*DiffResult, error)
}

var ErrAllocationFailure = errors.New("failed to allocate image buffer")

type DimensionMismatchError struct {
	BaselineWidth  int
	BaselineHeight int
	TargetWidth    int
	TargetHeight   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("images have different dimensions: %dx%d and %dx%d", e.BaselineWidth, e.BaselineHeight, e.TargetWidth, e.TargetHeight)
}
