package assets

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/settings"
)

// MaxUploadBytes bounds an uploaded image before decoding.
const MaxUploadBytes = 8 << 20

var (
	ErrEmptyImage  = domainerr.Invalid("image is empty")
	ErrTooLarge    = domainerr.Invalid("image exceeds 8 MB")
	ErrUnsupported = domainerr.Invalid("image must be JPEG, PNG or WebP")
)

// Processed is an image ready to store.
type Processed struct {
	Data        []byte
	Ext         string
	ContentType string
	Width       int
	Height      int
}

type profile struct {
	maxW, maxH int
	webp       bool
}

// Logos and banners are shown on the web and go to lossy WebP. Certificate
// templates and signatures are drawn into PDFs, which only embed JPEG and PNG.
var profiles = map[string]profile{
	settings.AssetLogo:                {maxW: 512, maxH: 512, webp: true},
	settings.AssetBanner:              {maxW: 1920, maxH: 640, webp: true},
	settings.AssetCertificateTemplate: {maxW: 3508, maxH: 3508},
	settings.AssetSignature:           {maxW: 800, maxH: 300},
}

// Process decodes an upload, downscales it for kind and re-encodes it.
// PRE: settings.IsValidAssetKind(kind)
func Process(kind string, data []byte) (Processed, error) {
	if len(data) == 0 {
		return Processed{}, ErrEmptyImage
	}
	if len(data) > MaxUploadBytes {
		return Processed{}, ErrTooLarge
	}
	img, err := decode(data)
	if err != nil {
		return Processed{}, err
	}
	p, ok := profiles[kind]
	if !ok {
		return Processed{}, settings.ErrInvalidAssetKind
	}
	img = downscale(img, p.maxW, p.maxH)

	var buf bytes.Buffer
	out := Processed{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if p.webp {
		err = webp.Encode(&buf, img, &webp.Options{Quality: 82})
		out.Ext, out.ContentType = ".webp", "image/webp"
	} else {
		err = png.Encode(&buf, img)
		out.Ext, out.ContentType = ".png", "image/png"
	}
	if err != nil {
		return Processed{}, err
	}
	out.Data = buf.Bytes()
	return out, nil
}

func decode(data []byte) (image.Image, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	var img image.Image
	var err error
	switch {
	case strings.Contains(ct, "jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "png"):
		img, err = png.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, ErrUnsupported
	}
	return img, nil
}

// downscale shrinks src to fit maxW x maxH, keeping its aspect ratio.
func downscale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Max(1, math.Round(float64(w)*scale)))
	nh := int(math.Max(1, math.Round(float64(h)*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
