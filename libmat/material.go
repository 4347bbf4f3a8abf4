package libmat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lhkbob/envbake/libio"
)

// Material is the texture set for one shaded surface: albedos for the
// diffuse and specular lobes, a tangent space normal map, and the two
// anisotropic shininess exponents packed into one map.
type Material struct {
	DiffuseAlbedo  *libio.FloatImage
	SpecularAlbedo *libio.FloatImage
	SpecularNormal *libio.FloatImage
	ShininessXY    *libio.FloatImage

	// DiffuseNormal is nil for materials authored without a separate
	// diffuse normal map, shaders fall back to the specular one.
	DiffuseNormal *libio.FloatImage
}

// Load reads a material directory holding diffuseAlbedo.hdr,
// specularAlbedo.hdr, specularNormal.hdr and shininessXY.hdr, plus an
// optional diffuseNormal.hdr.
func Load(dir string) (*Material, error) {
	mat := &Material{}

	var err error
	if mat.DiffuseAlbedo, err = loadTexture(dir, "diffuseAlbedo.hdr"); err != nil {
		return nil, err
	}
	if mat.SpecularAlbedo, err = loadTexture(dir, "specularAlbedo.hdr"); err != nil {
		return nil, err
	}
	if mat.SpecularNormal, err = loadTexture(dir, "specularNormal.hdr"); err != nil {
		return nil, err
	}
	if mat.ShininessXY, err = loadTexture(dir, "shininessXY.hdr"); err != nil {
		return nil, err
	}

	mat.DiffuseNormal, err = loadTexture(dir, "diffuseNormal.hdr")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		mat.DiffuseNormal = nil
	}

	return mat, nil
}

func loadTexture(dir, name string) (*libio.FloatImage, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("could not load material texture %s: %w", name, err)
	}
	defer f.Close()

	img, err := libio.DecodeRadiance(f)
	if err != nil {
		return nil, fmt.Errorf("could not load material texture %s: %w", name, err)
	}
	return img, nil
}
