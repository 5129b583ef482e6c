package preprocess

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-food-scanner/internal/errors"
)

// OutputMIMEType is the MIME type of every processed image.
const OutputMIMEType = "image/jpeg"

var (
	// ErrEmptyPayload is returned when no image data remains after stripping
	// the data URL prefix.
	ErrEmptyPayload = errors.New("empty image payload")

	// ErrInvalidBase64 is returned when the payload is not base64.
	ErrInvalidBase64 = errors.New("invalid base64 data")

	// ErrUndecodableImage is returned when the decoded bytes are not an image
	// in a supported format.
	ErrUndecodableImage = errors.New("cannot decode image")

	// ErrImageTooLarge is returned when the source canvas exceeds MaxSourcePixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// Processed is a transport-ready image.
type Processed struct {
	Data         []byte
	MIMEType     string
	Width        int
	Height       int
	SourceFormat string
	SourceWidth  int
	SourceHeight int
	Resized      bool
}

// Preprocessor turns base64 or data URL payloads into capped RGB JPEGs.
type Preprocessor struct {
	opts Options
}

// New creates a preprocessor. Out-of-range options fall back to defaults.
func New(opts Options) *Preprocessor {
	return &Preprocessor{opts: opts.normalized()}
}

// Process decodes payload and re-encodes it for the remote model. The declared
// MIME type is advisory only; the format is always sniffed from the bytes.
// All failures are InvalidImage AppErrors.
func (p *Preprocessor) Process(payload, declaredMIME string) (*Processed, error) {
	raw, err := DecodePayload(payload)
	if err != nil {
		return nil, invalidImage(err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, invalidImage(fmt.Errorf("%w: %v", ErrUndecodableImage, err))
	}
	if p.opts.MaxSourcePixels > 0 && cfg.Width*cfg.Height > p.opts.MaxSourcePixels {
		return nil, invalidImage(fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height))
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, invalidImage(fmt.Errorf("%w: %v", ErrUndecodableImage, err))
	}

	bounds := img.Bounds()
	out := &Processed{
		MIMEType:     OutputMIMEType,
		SourceFormat: format,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}

	if exceeds(bounds, p.opts.MaxDimension) {
		img = imaging.Fit(img, p.opts.MaxDimension, p.opts.MaxDimension, imaging.Lanczos)
		out.Resized = true
	}

	rgb := toRGB(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: p.opts.JPEGQuality}); err != nil {
		return nil, invalidImage(fmt.Errorf("encode jpeg: %w", err))
	}

	out.Data = buf.Bytes()
	out.Width = rgb.Bounds().Dx()
	out.Height = rgb.Bounds().Dy()
	return out, nil
}

// DecodePayload strips an optional data URL prefix (everything up to the first
// comma) and decodes the base64 remainder. Whitespace is ignored and standard,
// unpadded and URL-safe alphabets are accepted.
func DecodePayload(payload string) ([]byte, error) {
	if idx := strings.IndexByte(payload, ','); idx >= 0 {
		payload = payload[idx+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, firstErr)
}

func exceeds(bounds image.Rectangle, maxDimension int) bool {
	return bounds.Dx() > maxDimension || bounds.Dy() > maxDimension
}

// toRGB flattens img onto an opaque white canvas so palettized, grayscale,
// CMYK and translucent inputs all encode as three-channel color.
func toRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

func invalidImage(cause error) *apperrors.AppError {
	return apperrors.NewInvalidImageError("Error processing image: "+cause.Error(), cause)
}
