package imageio

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	diffimage "img-compare/internal/diff/image"

	"golang.org/x/xerrors"
)

// Truevision TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaRLETrueColor = 10
	tgaRLEGray      = 11
)

const (
	tgaTopToBottom = 0x20
	tgaRightToLeft = 0x10
)

type tgaHeader struct {
	IDLength      uint8
	ColorMapType  uint8
	ImageType     uint8
	ColorMapFirst uint16
	ColorMapLen   uint16
	ColorMapDepth uint8
	XOrigin       uint16
	YOrigin       uint16
	Width         uint16
	Height        uint16
	PixelDepth    uint8
	Descriptor    uint8
}

func decodeTGA(r io.Reader, maxPixels int64) (image.Image, error) {
	br := bufio.NewReader(r)

	var h tgaHeader
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, xerrors.Errorf("failed to read TGA header: %w", err)
	}
	if h.ColorMapType != 0 {
		return nil, xerrors.Errorf("unsupported TGA color map type: %d", h.ColorMapType)
	}
	if h.Descriptor&tgaRightToLeft != 0 {
		return nil, xerrors.New("unsupported TGA right-to-left pixel order")
	}

	var rle bool
	switch h.ImageType {
	case tgaTrueColor, tgaGray:
	case tgaRLETrueColor, tgaRLEGray:
		rle = true
	default:
		return nil, xerrors.Errorf("unsupported TGA image type: %d", h.ImageType)
	}

	gray := h.ImageType == tgaGray || h.ImageType == tgaRLEGray
	bytesPerPixel := int(h.PixelDepth) / 8
	switch {
	case gray && bytesPerPixel == 1:
	case !gray && (bytesPerPixel == 3 || bytesPerPixel == 4):
	default:
		return nil, xerrors.Errorf("unsupported TGA pixel depth %d for image type %d", h.PixelDepth, h.ImageType)
	}

	if _, err := br.Discard(int(h.IDLength)); err != nil {
		return nil, xerrors.Errorf("failed to skip TGA image id: %w", err)
	}

	width := int(h.Width)
	height := int(h.Height)
	if err := diffimage.CheckSize(width, height, maxPixels); err != nil {
		return nil, xerrors.Errorf("TGA: %w", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	pr := &tgaPixelReader{r: br, rle: rle, size: bytesPerPixel}

	for row := 0; row < height; row++ {
		y := height - 1 - row
		if h.Descriptor&tgaTopToBottom != 0 {
			y = row
		}
		for x := 0; x < width; x++ {
			raw, err := pr.next()
			if err != nil {
				return nil, xerrors.Errorf("failed to read TGA pixel data: %w", err)
			}
			img.SetNRGBA(x, y, tgaColor(raw, bytesPerPixel))
		}
	}

	return img, nil
}

func tgaColor(raw []byte, bytesPerPixel int) color.NRGBA {
	switch bytesPerPixel {
	case 1:
		return color.NRGBA{R: raw[0], G: raw[0], B: raw[0], A: 255}
	case 3:
		return color.NRGBA{R: raw[2], G: raw[1], B: raw[0], A: 255}
	default:
		return color.NRGBA{R: raw[2], G: raw[1], B: raw[0], A: raw[3]}
	}
}

// tgaPixelReader yields one pixel at a time, expanding run-length packets when rle is set.
type tgaPixelReader struct {
	r    *bufio.Reader
	rle  bool
	size int

	pixel  [4]byte
	remain int
	repeat bool
}

func (p *tgaPixelReader) next() ([]byte, error) {
	if !p.rle {
		if _, err := io.ReadFull(p.r, p.pixel[:p.size]); err != nil {
			return nil, err
		}
		return p.pixel[:p.size], nil
	}

	if p.remain == 0 {
		packet, err := p.r.ReadByte()
		if err != nil {
			return nil, err
		}
		p.remain = int(packet&0x7f) + 1
		p.repeat = packet&0x80 != 0
		if p.repeat {
			if _, err := io.ReadFull(p.r, p.pixel[:p.size]); err != nil {
				return nil, err
			}
		}
	}
	p.remain--

	if !p.repeat {
		if _, err := io.ReadFull(p.r, p.pixel[:p.size]); err != nil {
			return nil, err
		}
	}
	return p.pixel[:p.size], nil
}

// encodeTGA writes an uncompressed 32-bit top-to-bottom TGA.
func encodeTGA(w io.Writer, buf *diffimage.Buffer) error {
	if buf.Width > 0xffff || buf.Height > 0xffff {
		return xerrors.Errorf("image too large for TGA: %dx%d", buf.Width, buf.Height)
	}

	bw := bufio.NewWriter(w)
	h := tgaHeader{
		ImageType:  tgaTrueColor,
		Width:      uint16(buf.Width),
		Height:     uint16(buf.Height),
		PixelDepth: 32,
		Descriptor: tgaTopToBottom | 8, // alpha bits
	}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return xerrors.Errorf("failed to write TGA header: %w", err)
	}

	for i := 0; i < len(buf.Pix); i += 4 {
		if _, err := bw.Write([]byte{buf.Pix[i+2], buf.Pix[i+1], buf.Pix[i], buf.Pix[i+3]}); err != nil {
			return xerrors.Errorf("failed to write TGA pixel data: %w", err)
		}
	}

	return bw.Flush()
}
