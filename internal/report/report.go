// Package report renders the outcome of a comparison for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	diffimage "img-compare/internal/diff/image"

	"golang.org/x/xerrors"
)

type Pixel struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

type Largest struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Magnitude float64 `json:"magnitude"`
	PixelA    Pixel   `json:"pixelA"`
	PixelB    Pixel   `json:"pixelB"`
}

type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Output struct {
	DiffPath        string   `json:"diffPath,omitempty"`
	DifferentPixels int      `json:"differentPixels"`
	MaxChannelDiff  int      `json:"maxChannelDiff"`
	Largest         *Largest `json:"largest,omitempty"`
	Regions         []Region `json:"regions,omitempty"`
}

// New summarizes result. diffPath is empty when the diff image was not stored.
func New(diffPath string, result *diffimage.DiffResult) *Output {
	o := &Output{
		DiffPath:        diffPath,
		DifferentPixels: result.DifferentPixels,
		MaxChannelDiff:  result.Largest.LargestChannelDiff,
	}

	if result.DifferentPixels > 0 {
		o.Largest = &Largest{
			X:         result.Largest.X,
			Y:         result.Largest.Y,
			Magnitude: result.Largest.Magnitude,
			PixelA:    Pixel(result.Largest.PixelA),
			PixelB:    Pixel(result.Largest.PixelB),
		}
	}

	for _, r := range result.Regions {
		o.Regions = append(o.Regions, Region(r))
	}

	return o
}

func Write(w io.Writer, format string, o *Output) error {
	switch format {
	case "text":
		return WriteText(w, o)
	case "json":
		return WriteJSON(w, o)
	default:
		return xerrors.Errorf("unknown output format: %s", format)
	}
}

func WriteText(w io.Writer, o *Output) error {
	if o.DiffPath != "" {
		if _, err := fmt.Fprintf(w, "Diff image saved to: %s\n", o.DiffPath); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Number of different pixels: %d. Max channel diff: %d\n", o.DifferentPixels, o.MaxChannelDiff); err != nil {
		return err
	}

	if o.Largest != nil {
		l := o.Largest
		if _, err := fmt.Fprintf(w, "Largest difference at position (%d, %d):\n", l.X, l.Y); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Image A pixel: R=%d G=%d B=%d A=%d\n", l.PixelA.R, l.PixelA.G, l.PixelA.B, l.PixelA.A); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Image B pixel: R=%d G=%d B=%d A=%d\n", l.PixelB.R, l.PixelB.G, l.PixelB.B, l.PixelB.A); err != nil {
			return err
		}
	}

	for _, r := range o.Regions {
		if _, err := fmt.Fprintf(w, "Region: (%d, %d) %dx%d\n", r.X, r.Y, r.Width, r.Height); err != nil {
			return err
		}
	}

	return nil
}

func WriteJSON(w io.Writer, o *Output) error {
	if err := json.NewEncoder(w).Encode(o); err != nil {
		return xerrors.Errorf("failed to encode report: %w", err)
	}
	return nil
}
