package ibl

import (
	"fmt"

	"github.com/lhkbob/envbake/libio"
)

// ConvertCross slices a vertical cross panorama into a cube map. Seen top
// down the cross holds +y in the top band, the -x, -z, +x strip rotated by
// 180 degrees below it, then -y, and +z in the bottom band. The image must
// be exactly 3 faces wide and 4 faces tall, with rows ordered bottom to
// top as DecodeRadiance produces them.
func ConvertCross(img *libio.FloatImage) (*CubeMap, error) {
	if img.Channels != 3 {
		return nil, fmt.Errorf("cross image must have 3 channels, got %d", img.Channels)
	}
	side := img.Width / 3
	if side == 0 || img.Width != 3*side || img.Height != 4*side {
		return nil, fmt.Errorf("%dx%d image is not a 3x4 face cross", img.Width, img.Height)
	}

	cm := NewCubeMap(side, nil)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			copy(cm.texel(FacePX, x, y), img.Texel(3*side-x-1, 3*side-y-1))
			copy(cm.texel(FacePY, x, y), img.Texel(side+x, 3*side+y))
			copy(cm.texel(FacePZ, x, y), img.Texel(side+x, y))
			copy(cm.texel(FaceNX, x, y), img.Texel(side-x-1, 3*side-y-1))
			copy(cm.texel(FaceNY, x, y), img.Texel(side+x, side+y))
			copy(cm.texel(FaceNZ, x, y), img.Texel(2*side-x-1, 3*side-y-1))
		}
	}
	return cm, nil
}
