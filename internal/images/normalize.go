package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWEBP = "image/webp"
	MIMESVG  = "image/svg+xml"
	MIMEGIF  = "image/gif"
	MIMEBMP  = "image/bmp"

	// DefaultMaxDimension caps the longer side of re-encoded images
	DefaultMaxDimension = 1024
	// DefaultVectorSize is used for vectors that declare no intrinsic size
	DefaultVectorSize = 300
)

// ErrUnsupportedSource matches every UnsupportedSourceError via errors.Is
var ErrUnsupportedSource = errors.New("unsupported image source")

// UnsupportedSourceError reports a source that could not be decoded or re-encoded
type UnsupportedSourceError struct {
	Name     string
	MIMEType string
	Err      error
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("failed to process image %s (%s): %v", e.Name, e.MIMEType, e.Err)
}

func (e *UnsupportedSourceError) Unwrap() error {
	return e.Err
}

func (e *UnsupportedSourceError) Is(target error) bool {
	return target == ErrUnsupportedSource
}

// passthrough encodings are accepted by the generation service as-is
var passthrough = map[string]bool{
	MIMEJPEG: true,
	MIMEPNG:  true,
	MIMEWEBP: true,
}

// converted encodings are rasterized and re-encoded as PNG
var converted = map[string]bool{
	MIMESVG: true,
	MIMEGIF: true,
	MIMEBMP: true,
}

// CleanMIMEType lowercases a declared type and drops any parameters
func CleanMIMEType(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsAllowed reports whether a declared MIME type may be ingested at all
func IsAllowed(mimeType string) bool {
	t := CleanMIMEType(mimeType)
	return passthrough[t] || converted[t]
}

// IsServiceSupported reports whether the generation service accepts the type directly
func IsServiceSupported(mimeType string) bool {
	return passthrough[CleanMIMEType(mimeType)]
}

// IsVector reports whether the declared type is a vector format
func IsVector(mimeType string) bool {
	return CleanMIMEType(mimeType) == MIMESVG
}

// Normalizer converts sources into the encoding accepted by the generation service
type Normalizer struct {
	MaxDimension      int
	DefaultVectorSize int
}

// NewNormalizer returns a Normalizer with the default limits
func NewNormalizer() *Normalizer {
	return &Normalizer{
		MaxDimension:      DefaultMaxDimension,
		DefaultVectorSize: DefaultVectorSize,
	}
}

// Normalize returns the base64 payload for src, re-encoding it as PNG when the
// service cannot accept its declared type.
func (n *Normalizer) Normalize(src models.Source) (models.UploadedImage, error) {
	mimeType := CleanMIMEType(src.MIMEType)
	unsupported := func(err error) (models.UploadedImage, error) {
		return models.UploadedImage{}, &UnsupportedSourceError{Name: src.Name, MIMEType: mimeType, Err: err}
	}

	if len(src.Data) == 0 {
		return unsupported(errors.New("empty image data"))
	}

	if IsServiceSupported(mimeType) {
		return models.UploadedImage{
			MIMEType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(src.Data),
		}, nil
	}

	if !converted[mimeType] {
		return unsupported(fmt.Errorf("unsupported mime type %q", mimeType))
	}

	var (
		img image.Image
		err error
	)
	switch mimeType {
	case MIMESVG:
		img, err = n.rasterizeSVG(src.Data)
	case MIMEGIF:
		img, err = n.decodeAndFit(src.Data, gif.Decode)
	case MIMEBMP:
		img, err = n.decodeAndFit(src.Data, bmp.Decode)
	}
	if err != nil {
		return unsupported(err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return unsupported(fmt.Errorf("failed to encode png: %w", err))
	}

	return models.UploadedImage{
		MIMEType: MIMEPNG,
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func (n *Normalizer) decodeAndFit(data []byte, decode func(r io.Reader) (image.Image, error)) (image.Image, error) {
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), n.maxDimension())

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, nil
}

func (n *Normalizer) maxDimension() int {
	if n.MaxDimension <= 0 {
		return DefaultMaxDimension
	}
	return n.MaxDimension
}

func (n *Normalizer) defaultVectorSize() int {
	if n.DefaultVectorSize <= 0 {
		return DefaultVectorSize
	}
	return n.DefaultVectorSize
}

// FitWithin scales width and height down so the longer side is at most limit,
// preserving the aspect ratio. Images already within bounds are left alone.
func FitWithin(width, height, limit int) (int, int) {
	if width > height {
		if width > limit {
			height = int(math.Round(float64(height) * float64(limit) / float64(width)))
			width = limit
		}
	} else if height > limit {
		width = int(math.Round(float64(width) * float64(limit) / float64(height)))
		height = limit
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// Dimensions reads the pixel size of an encoded jpeg, png, gif, webp or bmp image
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// DimensionsOf decodes the payload of an UploadedImage and reports its size
func DimensionsOf(img models.UploadedImage) (int, int, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return Dimensions(data)
}
