package libio_test

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/lhkbob/envbake/libio"
)

// encodeRadiance builds a minimal .hdr stream with flat rgbe pixels,
// scanlines ordered top to bottom. Widths below 8 keep every decoder on
// the unencoded path.
func encodeRadiance(width, height int, pixels [][4]byte) []byte {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "#?RADIANCE\n")
	fmt.Fprintf(buf, "FORMAT=32-bit_rle_rgbe\n\n")
	fmt.Fprintf(buf, "-Y %d +X %d\n", height, width)
	for _, p := range pixels {
		buf.Write(p[:])
	}
	return buf.Bytes()
}

func TestDecodeRadiance(t *testing.T) {
	w, h := 6, 8
	pixels := make([][4]byte, w*h)
	// top left of the file: r=1.0, g=0.5, b=0.25
	pixels[0] = [4]byte{128, 64, 32, 129}
	// bottom right: uniform 0.797
	pixels[w*h-1] = [4]byte{204, 204, 204, 128}

	img, err := libio.DecodeRadiance(bytes.NewReader(encodeRadiance(w, h, pixels)))
	if err != nil {
		t.Fatal(err)
	}

	if img.Width != w || img.Height != h || img.Channels != 3 {
		t.Fatalf("image should be %dx%dx3 but is %dx%dx%d", w, h, img.Width, img.Height, img.Channels)
	}

	// the file's top scanline must land on the image's top row, which
	// this package stores last
	topLeft := img.Texel(0, h-1)
	expectTexel(t, "top left", topLeft, 1.0, 0.5, 0.25)

	bottomRight := img.Texel(w-1, 0)
	expectTexel(t, "bottom right", bottomRight, 0.797, 0.797, 0.797)

	// everything else stayed black
	if v := img.Texel(3, 3); v[0] != 0 || v[1] != 0 || v[2] != 0 {
		t.Errorf("unset texel should be black but is %v", v)
	}
}

func expectTexel(t *testing.T, what string, is []float32, r, g, b float64) {
	t.Helper()
	// mantissa conventions differ by up to half a step between decoders
	if math.Abs(float64(is[0])-r) > 0.01 || math.Abs(float64(is[1])-g) > 0.01 || math.Abs(float64(is[2])-b) > 0.01 {
		t.Errorf("%s should be (%v, %v, %v) but is %v", what, r, g, b, is)
	}
}

func TestDecodeRadianceGarbage(t *testing.T) {
	if _, err := libio.DecodeRadiance(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
