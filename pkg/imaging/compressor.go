// Package imaging downsizes and re-encodes vision payloads before they are
// embedded in a backend request.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/papercomputeco/magicprompt/pkg/dataurl"
	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// MaxDimension is the longest side, in pixels, an image is scaled down to.
const MaxDimension = 256

// MaxSourcePixels caps width*height of an input image. Larger inputs are not
// decoded, since the decoder allocates the full pixel buffer from the header.
const MaxSourcePixels = 40_000_000

// Quality levels per output format on a 0-100 scale. PNG is lossless, so its
// level selects the zlib effort rather than fidelity.
const (
	PNGQuality  = 60
	WEBPQuality = 80
	JPEGQuality = 85
)

// Compressor resizes and re-encodes base64 images. It never fails: any decode
// or encode problem returns the input untouched.
type Compressor struct {
	maxDimension int
	logger       *zap.Logger
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithMaxDimension overrides MaxDimension.
func WithMaxDimension(px int) Option {
	return func(c *Compressor) {
		if px > 0 {
			c.maxDimension = px
		}
	}
}

// NewCompressor creates a Compressor. A nil logger disables logging.
func NewCompressor(logger *zap.Logger, opts ...Option) *Compressor {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Compressor{
		maxDimension: MaxDimension,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress returns the item re-encoded as target, as bare base64. URLs,
// non-image media and undecodable data are returned unchanged.
func (c *Compressor) Compress(item llm.MediaItem, target llm.ImageFormat) string {
	return c.CompressItem(item, target).Data
}

// CompressItem is Compress, but also reports the MIME type the returned data
// is actually encoded in, which differs from target when compression was skipped.
func (c *Compressor) CompressItem(item llm.MediaItem, target llm.ImageFormat) llm.MediaItem {
	if item.Source != llm.SourceBase64 {
		return item
	}

	mediaType := mediaTypeOf(item)
	if mediaType != "" && !strings.HasPrefix(mediaType, "image/") {
		return item
	}

	encoded, err := c.compress(item.Data, target)
	if err != nil {
		c.logger.Debug("image compression skipped",
			zap.String("media_type", mediaType),
			zap.String("target", string(target)),
			zap.Error(err),
		)
		if mediaType != "" {
			item.MediaType = mediaType
		}
		return item
	}

	return llm.MediaItem{
		Source:    llm.SourceBase64,
		Data:      encoded,
		MediaType: target.MediaType(),
	}
}

func (c *Compressor) compress(data string, target llm.ImageFormat) (string, error) {
	raw, err := dataurl.Decode(data)
	if err != nil {
		return "", err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return "", fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxSourcePixels)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	img = c.fit(img)

	var buf bytes.Buffer
	switch target {
	case llm.FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngCompressionLevel(PNGQuality)))
	case llm.FormatWEBP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: WEBPQuality})
	case llm.FormatJPG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	default:
		return "", fmt.Errorf("unknown target format %q", target)
	}
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", target, err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fit scales img so its longer side is at most maxDimension. Smaller images
// are left alone.
func (c *Compressor) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= c.maxDimension && b.Dy() <= c.maxDimension {
		return img
	}
	return imaging.Fit(img, c.maxDimension, c.maxDimension, imaging.Lanczos)
}

func pngCompressionLevel(quality int) png.CompressionLevel {
	switch {
	case quality >= 90:
		return png.BestSpeed
	case quality >= 50:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func mediaTypeOf(item llm.MediaItem) string {
	if item.MediaType != "" {
		return strings.ToLower(item.MediaType)
	}
	return strings.ToLower(dataurl.MediaType(item.Data))
}
