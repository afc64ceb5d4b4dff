package common

import (
	"errors"
	"fmt"
)

// Channels is the only channel count the engine accepts (interleaved RGB).
const Channels = 3

var (
	ErrInvalidShape        = errors.New("invalid image shape")
	ErrUnsupportedChannels = errors.New("unsupported channel count")
	ErrInvalidWorkers      = errors.New("invalid worker count")
	ErrInvalidKernel       = errors.New("invalid kernel")
	ErrUnknownStrategy     = errors.New("unknown strategy")
)

// ColorSpace records how the codec interpreted the source pixels. The engine
// carries it through untouched.
type ColorSpace int

const (
	ColorSpaceUnknown ColorSpace = iota
	ColorSpaceRGB
	ColorSpaceGray
	ColorSpaceYCbCr
	ColorSpaceCMYK
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceRGB:
		return "rgb"
	case ColorSpaceGray:
		return "gray"
	case ColorSpaceYCbCr:
		return "ycbcr"
	case ColorSpaceCMYK:
		return "cmyk"
	default:
		return "unknown"
	}
}

// Image is a decoded raster: row-major, channels interleaved.
type Image struct {
	Buffer     []byte     `json:"-"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Channels   int        `json:"channels"`
	ColorSpace ColorSpace `json:"color_space"`
}

// NewImage allocates a zero-filled RGB image.
func NewImage(width, height int, cs ColorSpace) *Image {
	return &Image{
		Buffer:     make([]byte, width*height*Channels),
		Width:      width,
		Height:     height,
		Channels:   Channels,
		ColorSpace: cs,
	}
}

// NewImageLike allocates a zero-filled image with the same shape as img.
func NewImageLike(img *Image) *Image {
	return NewImage(img.Width, img.Height, img.ColorSpace)
}

// Pixels returns width*height.
func (img *Image) Pixels() int {
	return img.Width * img.Height
}

// Validate checks the buffer/shape invariant.
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("nil image: %w", ErrInvalidShape)
	}
	if img.Width < 0 || img.Height < 0 {
		return fmt.Errorf("%dx%d: %w", img.Width, img.Height, ErrInvalidShape)
	}
	if img.Channels != Channels {
		return fmt.Errorf("%d channels: %w", img.Channels, ErrUnsupportedChannels)
	}
	if want := img.Width * img.Height * img.Channels; len(img.Buffer) != want {
		return fmt.Errorf("buffer holds %d bytes, %dx%dx%d needs %d: %w",
			len(img.Buffer), img.Width, img.Height, img.Channels, want, ErrInvalidShape)
	}
	return nil
}

// Clone returns a deep copy, used where workers must not share memory.
func (img *Image) Clone() *Image {
	out := *img
	out.Buffer = append([]byte(nil), img.Buffer...)
	return &out
}

// JobMessage is what the coordinator publishes to every follower: the full
// input image and the kernel weights. The pixel bytes travel separately.
type JobMessage struct {
	RunID   string        `json:"run_id"`
	Workers int           `json:"workers"`
	Image   Image         `json:"image"`
	Kernel  [3][3]float32 `json:"kernel"`
}

// ResultMessage is one follower's partial result. The byte range it covers
// is implied by Rank.
type ResultMessage struct {
	RunID       string  `json:"run_id"`
	Rank        int     `json:"rank"`
	Data        []byte  `json:"-"`
	ProcessTime float64 `json:"process_time"`
}
