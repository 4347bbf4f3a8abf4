package ibl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lhkbob/envbake/libio"
	"github.com/pierrec/lz4/v4"
)

// lz4FrameMagic starts every lz4 frame. The cache format itself carries
// no magic, but a raw cache opens with a face size whose big endian bytes
// can never collide with the frame marker.
var lz4FrameMagic = []byte{0x04, 0x22, 0x4d, 0x18}

// maxSide bounds the face sizes a cache may declare, anything larger
// means a corrupt or foreign file.
const maxSide = 1 << 14

// DecodeEnvMap reads a baked environment in the renderer's cache format,
// raw or lz4 compressed, and re-ranks its light samples. The layout must
// be the one the cache was written with.
func DecodeEnvMap(r io.Reader, lv Layout) (env *EnvMap, err error) {
	if err := lv.validate(); err != nil {
		return nil, err
	}

	src := bufio.NewReader(r)
	var pixr io.Reader = src
	if magic, err := src.Peek(4); err == nil && bytes.Equal(magic, lz4FrameMagic) {
		pixr = lz4.NewReader(src)
	}

	br := &libio.BinaryReader{
		Src:   pixr,
		Order: binary.BigEndian,
	}

	defer func() {
		if br.Err != nil {
			if err == nil {
				err = br.Err
			} else {
				err = fmt.Errorf("%v: %w", err, br.Err)
			}
		}
	}()

	var side int
	if !br.ReadInt32(&side) {
		return nil, fmt.Errorf("expected radiance size; byte 0x%08x", br.LastIndex)
	}
	if side < 1 || side > maxSide {
		return nil, fmt.Errorf("invalid radiance size %d; byte 0x%08x", side, br.LastIndex)
	}

	radiance := NewCubeMap(side, nil)
	if !br.ReadRef(radiance.Data()) {
		return nil, fmt.Errorf("expected %d radiance texels; byte 0x%08x", 6*side*side, br.LastIndex)
	}

	var dirSide int
	if !br.ReadInt32(&dirSide) {
		return nil, fmt.Errorf("expected diffuse irradiance size; byte 0x%08x", br.LastIndex)
	}
	if dirSide != lv.DiffuseSide {
		return nil, fmt.Errorf("unexpected diffuse irradiance size: %d", dirSide)
	}

	diffuse := NewCubeMap(dirSide, nil)
	if !br.ReadRef(diffuse.Data()) {
		return nil, fmt.Errorf("expected %d diffuse texels; byte 0x%08x", 6*dirSide*dirSide, br.LastIndex)
	}

	env = &EnvMap{
		Layout:   lv,
		Radiance: radiance,
		Diffuse:  diffuse,
		Specular: make([]*CubeMap, lv.SpecularCount()),
	}
	for i := range env.Specular {
		s := lv.side(i, side)
		spec := NewCubeMap(s, nil)
		if !br.ReadRef(spec.Data()) {
			return nil, fmt.Errorf("expected %d specular texels for level %d; byte 0x%08x", 6*s*s, i, br.LastIndex)
		}
		env.Specular[i] = spec
	}

	env.samples = rankSamples(radiance)
	return env, nil
}
