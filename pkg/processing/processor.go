package processing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"

	_ "image/gif"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// ErrUnknownFormat is returned when image bytes cannot be decoded
var ErrUnknownFormat = errors.New("image: unknown or unsupported format")

// Supported output formats for encoded images
const (
	FormatJPEG = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

var (
	// BoxColor is the stroke and caption background of annotations (#3b82f6)
	BoxColor = color.NRGBA{59, 130, 246, 255}
	// CaptionColor is the caption text color
	CaptionColor = color.NRGBA{255, 255, 255, 255}
)

// Annotation is a labeled box drawn over an image
type Annotation struct {
	Box     types.BBox
	Caption string
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// Processor handles image decoding, annotation and encoding
type Processor struct {
	stroke int
	face   font.Face
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		stroke: 2,
		face:   basicfont.Face7x13,
	}
}

// DecodeImage decodes an image from byte data with WebP support
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrUnknownFormat
	}

	// Try registered decoders first (jpeg, png, gif, x/image webp)
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Try libwebp decode for variants x/image does not handle
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, ErrUnknownFormat
}

// GetImageInfo returns basic information about an image
func (p *Processor) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// EncodeImage encodes img in the given format. Quality applies to jpg and webp.
func (p *Processor) EncodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("png encode: %w", err)
		}
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("webp encode: %w", err)
		}
	case FormatJPEG, "jpeg", "":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("jpeg encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return buf.Bytes(), nil
}

// ContentType returns the MIME type for an output format
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Annotate returns a copy of img with a rectangle and caption drawn for
// every annotation. The copy has the same dimensions as the source.
func (p *Processor) Annotate(img image.Image, annotations []Annotation) *image.NRGBA {
	nrgba := imaging.Clone(img)
	for _, a := range annotations {
		p.drawAnnotation(nrgba, a)
	}
	return nrgba
}

func (p *Processor) drawAnnotation(img *image.NRGBA, a Annotation) {
	x0, y0, x1, y1 := boxToPixels(a.Box)
	drawBox(img, x0, y0, x1, y1, BoxColor, p.stroke)

	if a.Caption == "" {
		return
	}

	metrics := p.face.Metrics()
	textH := (metrics.Ascent + metrics.Descent).Ceil()
	textW := font.MeasureString(p.face, a.Caption).Ceil()

	// Caption tab sits on top of the box; flip inside when it would leave the image
	tabTop := y0 - textH - 8
	if tabTop < 0 {
		tabTop = y0
	}
	tab := image.Rect(x0, tabTop, x0+textW+4, tabTop+textH+8).Intersect(img.Bounds())
	draw.Draw(img, tab, image.NewUniform(BoxColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(CaptionColor),
		Face: p.face,
		Dot:  fixed.P(x0+2, tabTop+textH+4-metrics.Descent.Ceil()),
	}
	d.DrawString(a.Caption)
}

// Helper functions

func boxToPixels(box types.BBox) (int, int, int, int) {
	x0, y0 := int(box[0]), int(box[1])
	x1, y1 := int(box[2]), int(box[3])
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func drawBox(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X)
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, b.Min.Y)
	y1 = min(y1, b.Max.Y)
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}
