package libio

import (
	"fmt"
	"io"

	goimg "image"

	"github.com/mdouchement/hdr"
	// registers the Radiance RGBE format with image.Decode
	_ "github.com/mdouchement/hdr/codec/rgbe"
)

// DecodeRadiance reads a Radiance RGBE (.hdr) stream into a 3-channel
// FloatImage. Scanlines are flipped to this package's bottom-left origin.
func DecodeRadiance(r io.Reader) (*FloatImage, error) {
	src, _, err := goimg.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode radiance image: %w", err)
	}

	hdrImg, ok := src.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("image format %T carries no high dynamic range data", src)
	}

	bounds := hdrImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	img := NewFloatImage(nil, 3, w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cr, cg, cb, _ := hdrImg.HDRAt(bounds.Min.X+x, bounds.Min.Y+y).HDRRGBA()
			px := img.Texel(x, h-y-1)
			px[0] = float32(cr)
			px[1] = float32(cg)
			px[2] = float32(cb)
		}
	}

	return img, nil
}
