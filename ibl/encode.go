package ibl

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lhkbob/envbake/libio"
	"github.com/pierrec/lz4/v4"
)

type EncodeContext struct {
	Writer io.Writer

	lzw *lz4.Writer
}

type EncodeOption func(ctx *EncodeContext) error

// OptCompress wraps the cache stream in an lz4 frame. Level 0 picks the
// fast compressor, levels 1 through 9 trade speed for ratio. Negative
// levels disable compression entirely.
func OptCompress(level int) EncodeOption {
	levels := []lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	if level < 0 {
		return nil
	}

	if level >= len(levels) {
		level = len(levels) - 1
	}

	return func(ctx *EncodeContext) error {
		if ctx.lzw != nil {
			return fmt.Errorf("compression already configured")
		}
		lzw := lz4.NewWriter(ctx.Writer)
		lzw.Apply(lz4.CompressionLevelOption(levels[level]))
		ctx.Writer = lzw
		ctx.lzw = lzw
		return nil
	}
}

// EncodeEnvMap writes the baked environment in the renderer's cache
// format: radiance size and texels, diffuse size and texels, then every
// specular level in layout order, all big endian with no framing. With
// OptCompress the whole stream becomes an lz4 frame, which DecodeEnvMap
// detects on its own.
func EncodeEnvMap(w io.Writer, env *EnvMap, options ...EncodeOption) (err error) {
	ctx := EncodeContext{Writer: w}
	for _, opt := range options {
		if opt != nil {
			if err := opt(&ctx); err != nil {
				return err
			}
		}
	}

	bw := &libio.BinaryWriter{
		Dst:   ctx.Writer,
		Order: binary.BigEndian,
	}

	defer func() {
		if bw.Err != nil {
			if err == nil {
				err = bw.Err
			} else {
				err = fmt.Errorf("%v: %w", err, bw.Err)
			}
		}
	}()

	if !bw.WriteInt32(env.Radiance.Side) || !bw.WriteRef(env.Radiance.Data()) {
		return fmt.Errorf("could not write radiance map")
	}

	if !bw.WriteInt32(env.Diffuse.Side) || !bw.WriteRef(env.Diffuse.Data()) {
		return fmt.Errorf("could not write diffuse irradiance map")
	}

	for i, spec := range env.Specular {
		if !bw.WriteRef(spec.Data()) {
			return fmt.Errorf("could not write specular irradiance level %d", i)
		}
	}

	if ctx.lzw != nil {
		return ctx.lzw.Close()
	}
	return nil
}
