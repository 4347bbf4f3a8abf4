package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/lhkbob/envbake/ibl"
	"github.com/lhkbob/envbake/libio"
)

type previewArgs struct {
	commonArgs
	gamma      float64
	scale      float64
	size       size
	reinhard   bool
	paraboloid bool
}

func createPreviewCommand() *command {

	args := previewArgs{
		commonArgs: commonArgs{
			diffuse: 32,
			ext:     ".png",
		},
		gamma: 2.2,
		scale: 1.0,
		size: size{
			unit:    unitPercent,
			percent: 100,
		},
		reinhard: false,
	}

	flags := flag.NewFlagSet("preview", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Float64Var(&args.gamma, "gamma", args.gamma, "gamma correction value")
	flags.Float64Var(&args.scale, "scale", args.scale, "brightness scale factor")
	flags.Var(&args.size, "size", "the png face resolution, either % of the cubemap size or absolute px")
	flags.Var(&args.size, "s", "shorthand for size")
	flags.BoolVar(&args.reinhard, "reinhard", args.reinhard, "apply reinhard tonemapping")
	flags.BoolVar(&args.paraboloid, "paraboloid", args.paraboloid, "also render the radiance as a dual paraboloid map")

	return &command{
		Name: "preview",
		Help: "render environment map caches to png",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 || args.diffuse < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runPreview(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runPreview(args previewArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := previewFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Converted %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func previewFile(args previewArgs, p string, ext string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	hdri, err := ibl.DecodeEnvMap(inFile, args.layout())
	if err != nil {
		return err
	}

	if !cargs.quiet {
		size := hdri.Side()
		fmt.Printf("Converting to %dx%d png ...\n", size, size*6)
	}

	type view struct {
		name string
		img  *libio.FloatImage
	}
	views := []view{
		{"_radiance", sheet(hdri.Radiance)},
		{"_diffuse", sheet(hdri.Diffuse)},
	}
	for i, cm := range hdri.Specular {
		views = append(views, view{fmt.Sprintf("_specular%d", i), sheet(cm)})
	}
	if args.paraboloid {
		pos, neg := ibl.DualParaboloid(hdri.Radiance)
		views = append(views, view{"_paraboloid_pos", pos}, view{"_paraboloid_neg", neg})
	}

	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	for _, v := range views {
		err := writePng(args, v.img, filepath.Join(cargs.out, base+v.name+ext))
		if err != nil {
			return err
		}
	}

	return nil
}

// sheet stacks the six faces of a cube map into one face wide, six faces
// tall contact sheet sharing the cube map's storage.
func sheet(cm *ibl.CubeMap) *libio.FloatImage {
	return libio.NewFloatImage(cm.Data(), 3, cm.Side, cm.Side*6)
}

func writePng(args previewArgs, fimg *libio.FloatImage, outFilename string) error {
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if args.reinhard {
		for i := 0; i < fimg.Count(); i++ {
			fimg.Pix[i*3+0] = fimg.Pix[i*3+0] / (1 + fimg.Pix[i*3+0])
			fimg.Pix[i*3+1] = fimg.Pix[i*3+1] / (1 + fimg.Pix[i*3+1])
			fimg.Pix[i*3+2] = fimg.Pix[i*3+2] / (1 + fimg.Pix[i*3+2])
		}
	}
	rgba := fimg.ToIntImage(float32(args.gamma), float32(args.scale)).ToRGBA()

	dstWidth := args.size.Calc(fimg.Width)
	if dstWidth > 0 && dstWidth != fimg.Width {
		dstHeight := dstWidth * fimg.Height / fimg.Width
		scaled := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), rgba, rgba.Bounds(), draw.Src, nil)
		rgba = scaled
	}

	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	err = png.Encode(outFile, rgba)
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}

	return nil
}
