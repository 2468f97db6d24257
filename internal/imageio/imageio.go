// Package imageio converts between encoded image files and diff buffers.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	diffimage "img-compare/internal/diff/image"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/xerrors"
)

type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Decode reads any supported format into a straight-alpha RGBA buffer. The format is sniffed
// from the data except for TGA, which has no signature and is selected by the .tga extension.
// Header dimensions are checked against maxPixels before the raster is decoded.
func Decode(path string, data []byte, maxPixels int64) (*diffimage.Buffer, error) {
	var img image.Image
	var err error
	if extension(path) == ".tga" {
		img, err = decodeTGA(bytes.NewReader(data), maxPixels)
	} else {
		img, err = decodeImage(data, maxPixels)
	}
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	buf, err := diffimage.FromImage(img, maxPixels)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return buf, nil
}

func decodeImage(data []byte, maxPixels int64) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := diffimage.CheckSize(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Encode writes buf in a lossless format chosen by the extension of path. PNG is used when
// path has no extension.
func Encode(path string, buf *diffimage.Buffer) ([]byte, error) {
	var buffer bytes.Buffer
	var err error

	img := buf.NRGBA()
	switch ext := extension(path); ext {
	case "", ".png":
		err = png.Encode(&buffer, img)
	case ".bmp":
		err = bmp.Encode(&buffer, img)
	case ".tif", ".tiff":
		err = tiff.Encode(&buffer, img, &tiff.Options{Compression: tiff.Deflate})
	case ".tga":
		err = encodeTGA(&buffer, buf)
	default:
		err = xerrors.Errorf("unsupported lossless format: %s", ext)
	}
	if err != nil {
		return nil, &EncodeError{Path: path, Err: err}
	}

	return buffer.Bytes(), nil
}

// ContentType returns the MIME type Encode produces for path.
func ContentType(path string) string {
	switch extension(path) {
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".tga":
		return "image/x-tga"
	default:
		return "image/png"
	}
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
