// Package codec converts between image files and the engine's packed RGB
// buffers.
package codec

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-smooth/pkg/common"
)

// Format names an on-disk encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// JPEGQuality is used for every JPEG this package writes.
const JPEGQuality = 95

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
}

// Decode opens and decodes path into a packed RGB image.
func Decode(path string) (*common.Image, Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return DecodeReader(file)
}

// DecodeReader decodes any registered format from r.
func DecodeReader(r io.Reader) (*common.Image, Format, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), Format(format), nil
}

// FromImage packs any image.Image into interleaved 8-bit RGB, dropping alpha.
func FromImage(img image.Image) *common.Image {
	bounds := img.Bounds()
	out := common.NewImage(bounds.Dx(), bounds.Dy(), colorSpaceOf(img))

	p := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Buffer[p] = c.R
			out.Buffer[p+1] = c.G
			out.Buffer[p+2] = c.B
			p += common.Channels
		}
	}
	return out
}

// ToImage unpacks an RGB buffer into an opaque *image.RGBA.
func ToImage(img *common.Image) (*image.RGBA, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Pixels(); i++ {
		s := i * common.Channels
		d := i * 4
		rgba.Pix[d] = img.Buffer[s]
		rgba.Pix[d+1] = img.Buffer[s+1]
		rgba.Pix[d+2] = img.Buffer[s+2]
		rgba.Pix[d+3] = 0xff
	}
	return rgba, nil
}

// Encode writes img to path in the given format.
func Encode(img *common.Image, path string, format Format) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := EncodeWriter(outFile, img, format); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}

// EncodeWriter encodes img to w.
func EncodeWriter(w io.Writer, img *common.Image, format Format) error {
	rgba, err := ToImage(img)
	if err != nil {
		return err
	}

	switch format {
	case FormatJPEG:
		err = jpeg.Encode(w, rgba, &jpeg.Options{Quality: JPEGQuality})
	case FormatPNG:
		err = png.Encode(w, rgba)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

func colorSpaceOf(img image.Image) common.ColorSpace {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return common.ColorSpaceGray
	case *image.YCbCr:
		return common.ColorSpaceYCbCr
	case *image.CMYK:
		return common.ColorSpaceCMYK
	default:
		return common.ColorSpaceRGB
	}
}
