package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // decoder registration
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration

	"dental-bot/api/internal/util"
)

const (
	// DefaultMaxDimension is the longest side sent to the model.
	DefaultMaxDimension = 768
	jpegQuality         = 85
)

// Normalizer is the image collaborator used before a request is built.
type Normalizer interface {
	FitsWithin(img image.Image, maxDimension int) bool
	ResizeToFit(img image.Image, maxDimension int) image.Image
}

// Resizer scales with an x/image/draw interpolator; nil means CatmullRom.
type Resizer struct {
	Interpolator draw.Interpolator
}

func (Resizer) FitsWithin(img image.Image, maxDimension int) bool {
	b := img.Bounds()
	return b.Dx() <= maxDimension && b.Dy() <= maxDimension
}

func (r Resizer) ResizeToFit(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := AspectFit(b.Dx(), b.Dy(), maxDimension)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	interp := r.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// AspectFit caps the longer side at maxDimension and rounds the other side
// to the nearest pixel.
func AspectFit(width, height, maxDimension int) (int, int) {
	if width <= 0 || height <= 0 || maxDimension <= 0 {
		return width, height
	}
	aspect := float64(width) / float64(height)
	if width > height {
		w := min(width, maxDimension)
		return w, max(1, int(math.Round(float64(w)/aspect)))
	}
	h := min(height, maxDimension)
	return max(1, int(math.Round(float64(h)*aspect))), h
}

// Orientation reads the EXIF orientation tag; 1 when absent or unreadable.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Orient applies an EXIF orientation so the image is upright.
func Orient(img image.Image, orientation int) image.Image {
	if orientation < 2 || orientation > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := orientPoint(orientation, x, y, w, h)
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func orientPoint(o, x, y, w, h int) (int, int) {
	switch o {
	case 2: // mirror horizontal
		return w - 1 - x, y
	case 3: // rotate 180
		return w - 1 - x, h - 1 - y
	case 4: // mirror vertical
		return x, h - 1 - y
	case 5: // transpose
		return y, x
	case 6: // rotate 90 CW
		return h - 1 - y, x
	case 7: // transverse
		return h - 1 - y, w - 1 - x
	case 8: // rotate 90 CCW
		return y, w - 1 - x
	}
	return x, y
}

// Prepared is the image as it will be sent to the model.
type Prepared struct {
	Data          []byte
	MIME          string
	Width, Height int
	Resized       bool
	Orientation   int
}

// Prepare decodes data, makes it upright and shrinks it to maxDimension.
// Unchanged images are passed through byte for byte.
func Prepare(data []byte, maxDimension int, n Normalizer) (Prepared, error) {
	if len(data) == 0 {
		return Prepared{}, fmt.Errorf("empty image")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("decode: %w", err)
	}
	orientation := Orientation(data)
	if orientation != 1 {
		img = Orient(img, orientation)
	}
	resized := false
	if !n.FitsWithin(img, maxDimension) {
		img = n.ResizeToFit(img, maxDimension)
		resized = true
	}

	b := img.Bounds()
	out := Prepared{Width: b.Dx(), Height: b.Dy(), Resized: resized, Orientation: orientation}
	if !resized && orientation == 1 {
		out.Data = data
		out.MIME = util.SniffMimeHTTP(data)
		if out.MIME != "image/jpeg" && out.MIME != "image/png" && out.MIME != "image/webp" {
			return reencode(img, out)
		}
		return out, nil
	}
	return reencode(img, out)
}

func reencode(img image.Image, out Prepared) (Prepared, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Prepared{}, fmt.Errorf("encode: %w", err)
	}
	out.Data = buf.Bytes()
	out.MIME = "image/jpeg"
	return out, nil
}
